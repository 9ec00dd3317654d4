package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/recordui/internal/config"
	"github.com/sells-group/recordui/internal/render"
	"github.com/sells-group/recordui/internal/store"
	"github.com/sells-group/recordui/internal/tools"
	"github.com/sells-group/recordui/pkg/salesforce"
)

// initStore opens and migrates the action log. Driver "none" yields nil.
func initStore(ctx context.Context, c config.StoreConfig) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch c.Driver {
	case "none":
		return nil, nil
	case "sqlite":
		st, err = store.NewSQLite(c.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, c.DatabaseURL, c.MaxConns)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", c.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

// initSalesforce connects when credentials are configured. A nil client
// means the salesforce tools stay unregistered.
func initSalesforce(c config.SalesforceConfig) (salesforce.Client, error) {
	if !c.Enabled() {
		return nil, nil
	}
	client, err := salesforce.Connect(salesforce.Credentials{
		LoginURL: c.LoginURL,
		Username: c.Username,
		ClientID: c.ClientID,
		KeyPath:  c.KeyPath,
	}, salesforce.WithRateLimit(c.RateLimit))
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}
	zap.L().Info("salesforce connected", zap.String("username", c.Username))
	return client, nil
}

func newRenderer(c config.RenderConfig) (*render.Renderer, error) {
	if c.SectionsFile == "" {
		return render.New()
	}
	layout, err := render.LoadSectionLayout(c.SectionsFile)
	if err != nil {
		return nil, eris.Wrap(err, "load section layout")
	}
	return render.New(render.WithSectionLayout(layout))
}

// newToolHandler builds the renderer and tool handler shared by all modes.
func newToolHandler(c *config.Config, opts ...tools.Option) (*tools.Handler, *render.Renderer, error) {
	r, err := newRenderer(c.Render)
	if err != nil {
		return nil, nil, err
	}
	sf, err := initSalesforce(c.Salesforce)
	if err != nil {
		return nil, nil, err
	}
	if sf != nil {
		opts = append(opts, tools.WithSalesforce(sf))
	}
	return tools.New(r, opts...), r, nil
}

func artifactTTL(c config.ServerConfig) time.Duration {
	return time.Duration(c.ArtifactTTLMinutes) * time.Minute
}
