// Package placeholder finds and lowers ${NAME} and ${NAME:-default} tokens.
//
// Compose output keeps the tokens and only needs their names (ScanText)
// or, in inflect mode, inline values (Inflector). Kubernetes output
// rewrites them through a Rewriter: embedded tokens become $(NAME), and
// a token that is the whole value of an env entry's valueFrom becomes a
// configMapKeyRef or, for values prefixed with [SECRET], a secretKeyRef.
// All variables end up in a Registry that feeds the kustomization.
package placeholder
