// Package manifest composes profiles into recipes.
//
// A profile lists components; each component names a template and
// optionally mixins, additions and wrappers:
//
//	header:
//	  project: shop
//	components:
//	  web:
//	    instances: 2
//	    mixins:
//	      healthcheck: {path: /health}
//	    additions:
//	      restart: always
//	    wrapper:
//	      traefik: {host: shop.example.org}
//
// Composition renders the header, then every component instance in
// declaration order, then the footer. The resulting recipe goes through the
// release replacer and is handed to an output.Strategy.
//
// Templates resolve through render.Engine. Failures are reported as
// *ComposeError naming the template and the stage it failed in.
package manifest
