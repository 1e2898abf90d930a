// Package digo is a binding registry and object-construction engine.
//
// A Container is filled once with bindings, each keyed by a Go type:
//
//	c := digo.New()
//	_ = digo.RegisterConstructor(c, func(c *digo.Container) (Config, error) {
//		return Config{Addr: ":8080"}, nil
//	})
//	_ = digo.RegisterProvider(c, func(c *digo.Container) (*Server, error) {
//		cfg, err := digo.GetPtr[Config](c)
//		if err != nil {
//			return nil, err
//		}
//		return NewServer(cfg), nil
//	})
//	_ = digo.Bind[Handler, Server](c)
//
// and then resolved with Get, GetPtr, GetProvider and GetMultibindings.
// Every binding is a singleton of its container: it is built on first use,
// at most once, and the same pointer is returned afterwards. Values from
// RegisterConstructor live in the container's arena; pointers from
// RegisterProvider are owned by the container; instances given to
// BindInstance stay owned by the caller.
//
// Several entries may be added for one type with the Add* and
// RegisterMultibinding* functions. GetMultibindings returns them as a
// deduplicated Set.
//
// Assisted factories mix injected dependencies with arguments given at
// call time:
//
//	_ = digo.RegisterFactory(c, digo.Annotate(
//		digo.InjectPtr[Config](),
//		digo.Assisted[string](),
//	), func(args []any) (Greeter, error) {
//		cfg, err := digo.Arg[*Config](args, 0)
//		if err != nil {
//			return Greeter{}, err
//		}
//		name, err := digo.Arg[string](args, 1)
//		return Greeter{cfg: cfg, name: name}, err
//	})
//	greet, _ := digo.Get[digo.Factory[Greeter]](c)
//	g, _ := greet("world")
//
// Shutdown destroys every container-owned instance in reverse construction
// order, calling OnShutdown or Close when the instance implements them.
package digo
