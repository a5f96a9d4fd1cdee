// Package factory holds the registry used to build pluggable modules, such as
// trip sources, from configuration. A module is named by a type string and
// carries a raw settings map that the factory decodes into its own struct.
//
//	reg := factory.NewRegistry[ingest.Source]()
//	_ = reg.Register("csv", func(conf map[string]any) (ingest.Source, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return ingest.NewCSVSource(c.Path), nil
//	})
//	src, err := reg.Create(factory.ModuleConfig{Type: "csv", Conf: map[string]any{"path": "trips.csv"}})
package factory
