package ingest

import "github.com/corner-25/test-umc-sub000/core/factory"

func factoryConf(typ string, conf map[string]any) factory.ModuleConfig {
	return factory.ModuleConfig{Type: typ, Conf: conf}
}
