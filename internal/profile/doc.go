// Package profile loads rigger profiles.
//
// A profile is a YAML file describing which components to generate:
//
//	_inheritance:
//	  extends: ../base.yml
//	  unsets:
//	    - components.debug
//	header:
//	  version: "3.8"
//	components:
//	  web:
//	    instances: 2
//	    mixins:
//	      traefik: { host: app.example.com }
//
// Resolve flattens the _inheritance chain, Components exposes the
// component declarations in order, and LoadSettings reads the directory
// level transpiler.yml.
package profile
