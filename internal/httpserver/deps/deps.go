package deps

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/hublink/internal/auth"
	"github.com/MrSnakeDoc/hublink/internal/domain"
	"github.com/MrSnakeDoc/hublink/internal/hub"
	"github.com/MrSnakeDoc/hublink/internal/logger"
	"github.com/MrSnakeDoc/hublink/internal/metrics"
)

// SnapshotStore is the read and refresh surface of hub.ConfigStore.
type SnapshotStore interface {
	Current() *domain.Snapshot
	State() hub.State
	Refresh(ctx context.Context) (*domain.Snapshot, error)
}

// ConfigSaver persists an admin edit buffer.
type ConfigSaver interface {
	Save(ctx context.Context, buf hub.EditBuffer) (*domain.Snapshot, error)
}

// ClickCounter records and reports link clicks.
type ClickCounter interface {
	IncrementClicks(ctx context.Context, linkID string) (int64, error)
	ClickStats(ctx context.Context) (map[string]int64, error)
}

// WeatherReader returns the last weather observation.
type WeatherReader interface {
	Current() (*domain.Weather, error)
}

// Pinger checks a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed to access operational endpoints
	AllowedCIDRS []string         // IPs allowed to access readyz/reload/infra/metrics
	TrustProxy   bool             // true if running behind a trusted reverse proxy (e.g., cloudflared)
	CORSOrigins  []string         // origins allowed to call the API

	Store         SnapshotStore       // published configuration
	Saver         ConfigSaver         // nil when no remote store is configured
	Validator     auth.TokenValidator // nil when admin is unavailable
	Roles         auth.RoleChecker    // nil when admin is unavailable
	Authenticator auth.Authenticator  // nil when admin is unavailable
	AdminRole     string

	Clicks   ClickCounter  // nil if Redis is disabled
	Weather  WeatherReader // nil if the weather widget is disabled
	Metrics  *metrics.Collector
	Redis    Pinger // nil if Redis is disabled
	Database Pinger // nil if no remote store is configured

	StaticDocument string        // location of the static document
	ReloadTrigger  chan struct{} // Channel to trigger a manual configuration refresh
}

// Now returns the current time using TimeNow when set.
func (d Deps) Now() time.Time {
	if d.TimeNow != nil {
		return d.TimeNow()
	}
	return time.Now()
}
