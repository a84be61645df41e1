package cli

import (
	"log/slog"

	"github.com/roach88/rowmap/internal/config"
	"github.com/roach88/rowmap/internal/mapper"
	"github.com/roach88/rowmap/internal/store"
)

// session is one command's open database and mapper.
type session struct {
	store  *store.Store
	def    config.MapperDef
	mapper *mapper.Mapper
}

// openSession loads the config, opens the database and builds the named
// mapper. The caller must Close the session.
func openSession(opts *RootOptions, name string) (*session, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, err
	}
	def, err := cfg.Lookup(name)
	if err != nil {
		return nil, err
	}

	st, err := openStore(opts, cfg)
	if err != nil {
		return nil, err
	}
	slog.Debug("building mapper", "mapper", name, "table", def.Table)

	m, err := def.Build(st)
	if err != nil {
		st.Close()
		return nil, err
	}
	return &session{store: st, def: def, mapper: m}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}
