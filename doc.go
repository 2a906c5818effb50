// Package hydrate populates typed Go objects from loosely-typed
// configuration trees ("hydration") and produces trees back from objects
// ("dehydration"), under a declarative per-type schema of field-mapping
// rules.
//
// # Usage
//
//	type Server struct {
//	    Host string
//	    Port int
//	}
//
//	h := hydrate.New()
//	var srv Server
//	ok, err := h.Hydrate(&srv, []byte(`{"Host": "a", "Port": 80}`), nil)
//	if !ok {
//	    for _, msg := range h.Errors() {
//	        ...
//	    }
//	}
//
// Each type's schema is bound once and cached for the process lifetime.
// The default schema maps every exported field under its own name;
// explicit rules rename fields, validate values, key collections,
// instantiate nested objects, or route values through constructors:
//
//	hydrate.RegisterRules(Server{},
//	    hydrate.NewRule("host").WithTarget("Host").WithRequired(true),
//	    hydrate.NewRule("port").WithTarget("Port").WithValidator(portValid),
//	)
//
// Hydration is a synchronous recursive tree walk. Errors are aggregated:
// a failing field is reported and its siblings still hydrate, so a false
// result reads as partial success with diagnostics. The one exception is
// an unknown input key under strict mode, which aborts the call.
//
// # Related Packages
//
//   - github.com/confkit/hydrate/ir - decoded tree representation
//   - github.com/confkit/hydrate/decode - JSON/YAML text to IR
//   - github.com/confkit/hydrate/encode - IR to JSON/YAML text
package hydrate
