package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	PlanFree    = "FREE"
	PlanPremium = "PREMIUM"
)

// PlanLimits are the quota numbers attached to a plan.
type PlanLimits struct {
	QADailyLimit int `mapstructure:"qaDailyLimit" json:"qaDailyLimit"`
	QARowLimit   int `mapstructure:"qaRowLimit" json:"qaRowLimit"`
}

// PlanCatalog maps every plan to its limits.
type PlanCatalog struct {
	Free    PlanLimits `mapstructure:"free"`
	Premium PlanLimits `mapstructure:"premium"`
}

// Limits returns the limits for plan. Unknown plans get FREE limits.
func (c PlanCatalog) Limits(plan string) PlanLimits {
	if strings.EqualFold(strings.TrimSpace(plan), PlanPremium) {
		return c.Premium
	}
	return c.Free
}

func (c PlanCatalog) Validate() error {
	if c.Free.QADailyLimit <= 0 || c.Free.QARowLimit <= 0 {
		return errors.New("plans.free limits must be positive")
	}
	if c.Premium.QADailyLimit < c.Free.QADailyLimit {
		return fmt.Errorf("plans.premium.qaDailyLimit (%d) must be >= plans.free.qaDailyLimit (%d)",
			c.Premium.QADailyLimit, c.Free.QADailyLimit)
	}
	if c.Premium.QARowLimit < c.Free.QARowLimit {
		return fmt.Errorf("plans.premium.qaRowLimit (%d) must be >= plans.free.qaRowLimit (%d)",
			c.Premium.QARowLimit, c.Free.QARowLimit)
	}
	return nil
}

type PlanCatalogHolder struct {
	current atomic.Value // holds PlanCatalog
}

// NewPlanCatalogHolder seeds the catalog from env and overlays an optional plans.yml,
// which is watched for changes.
func NewPlanCatalogHolder(cfg Config) (*PlanCatalogHolder, error) {
	return newPlanCatalogHolder(cfg.Plans,
		"/var/lib/courtside/config", // Volume-mounted config
		"/etc/courtside",            // System config
		".",                         // Current directory (dev mode)
	)
}

// NewStaticPlanCatalogHolder returns a holder that never reloads.
func NewStaticPlanCatalogHolder(catalog PlanCatalog) (*PlanCatalogHolder, error) {
	if err := catalog.Validate(); err != nil {
		return nil, err
	}
	holder := &PlanCatalogHolder{}
	holder.current.Store(catalog)
	return holder, nil
}

func newPlanCatalogHolder(defaults PlanCatalog, paths ...string) (*PlanCatalogHolder, error) {
	v := viper.New()

	v.SetConfigName("plans")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetDefault("plans.free.qaDailyLimit", defaults.Free.QADailyLimit)
	v.SetDefault("plans.free.qaRowLimit", defaults.Free.QARowLimit)
	v.SetDefault("plans.premium.qaDailyLimit", defaults.Premium.QADailyLimit)
	v.SetDefault("plans.premium.qaRowLimit", defaults.Premium.QARowLimit)

	fileFound := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileFound = false
	}

	catalog, err := decodePlanCatalog(v)
	if err != nil {
		return nil, err
	}

	holder := &PlanCatalogHolder{}
	holder.current.Store(catalog)

	if fileFound {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			holder.reload(v, e.Name)
		})
	}

	return holder, nil
}

func (h *PlanCatalogHolder) reload(v *viper.Viper, source string) {
	updated, err := decodePlanCatalog(v)
	if err != nil {
		log.Printf("[plan-catalog] invalid config ignored: %v", err)
		return
	}
	h.current.Store(updated)
	log.Printf("[plan-catalog] reloaded from %s", source)
}

// planFile mirrors plans.yml. Unmarshal goes through AllSettings so that
// defaults and file values are merged per leaf key.
type planFile struct {
	Plans PlanCatalog `mapstructure:"plans"`
}

func decodePlanCatalog(v *viper.Viper) (PlanCatalog, error) {
	var file planFile
	if err := v.Unmarshal(&file); err != nil {
		return PlanCatalog{}, err
	}
	if err := file.Plans.Validate(); err != nil {
		return PlanCatalog{}, err
	}
	return file.Plans, nil
}

func (h *PlanCatalogHolder) Get() PlanCatalog {
	return h.current.Load().(PlanCatalog)
}

func (h *PlanCatalogHolder) Limits(plan string) PlanLimits {
	return h.Get().Limits(plan)
}
