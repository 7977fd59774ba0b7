package config

import (
	"strings"
)

// 默认值常量
const (
	defaultAppEnv            = "dev"
	defaultAppLogLevel       = "info"
	defaultAppHTTPAddr       = ":9992"
	defaultAppEventBuffer    = 200
	defaultKeruyunBaseURL    = "https://openapi.keruyun.com"
	defaultKeruyunVersion    = "2.0"
	defaultKeruyunPageSize   = 50
	defaultKeruyunTimeout    = 10
	defaultFastInterval      = 60
	defaultSlowInterval      = 180
	defaultJitterMin         = 2
	defaultJitterMax         = 6
	defaultFeishuTimeout     = 5
	defaultBreakerCooldown   = 600
	defaultStorePath         = "data/kryreport.db"
	defaultShopName          = "门店"
	defaultShopTimezoneLocal = "Local"
)

var defaultFastWindows = []string{"10:30-14:00", "17:00-23:00"}

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Shop.applyDefaults(keys)
	c.Keruyun.applyDefaults(keys)
	c.Schedule.applyDefaults(keys)
	c.Notify.applyDefaults(keys)
	c.Store.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
		boolFieldDefault("app.autostart", &a.Autostart, true),
		intFieldDefault("app.event_buffer", &a.EventBuffer, defaultAppEventBuffer),
	)
}

func (s *ShopConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("shop.name", &s.Name, defaultShopName),
		stringFieldDefault("shop.timezone", &s.Timezone, defaultShopTimezoneLocal),
	)
}

func (k *KeruyunConfig) applyDefaults(keys keySet) {
	if k == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("keruyun.base_url", &k.BaseURL, defaultKeruyunBaseURL),
		stringFieldDefault("keruyun.version", &k.Version, defaultKeruyunVersion),
		intFieldDefault("keruyun.page_size", &k.PageSize, defaultKeruyunPageSize),
		intFieldDefault("keruyun.timeout_seconds", &k.TimeoutSeconds, defaultKeruyunTimeout),
	)
}

func (s *ScheduleConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "schedule.fast_windows",
			need:  func() bool { return len(s.FastWindows) == 0 },
			apply: func() { s.FastWindows = append([]string(nil), defaultFastWindows...) },
		},
		intFieldDefault("schedule.fast_interval_seconds", &s.FastIntervalSeconds, defaultFastInterval),
		intFieldDefault("schedule.slow_interval_seconds", &s.SlowIntervalSeconds, defaultSlowInterval),
		intFieldDefault("schedule.jitter_min_seconds", &s.JitterMinSeconds, defaultJitterMin),
		intFieldDefault("schedule.jitter_max_seconds", &s.JitterMaxSeconds, defaultJitterMax),
	)
}

func (n *NotifyConfig) applyDefaults(keys keySet) {
	if n == nil {
		return
	}
	applyFieldDefaults(keys,
		boolFieldDefault("notify.feishu.enabled", &n.Feishu.Enabled, true),
		intFieldDefault("notify.feishu.timeout_seconds", &n.Feishu.TimeoutSeconds, defaultFeishuTimeout),
		intFieldDefault("notify.breaker.cooldown_seconds", &n.Breaker.CooldownSeconds, defaultBreakerCooldown),
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.path", &s.Path, defaultStorePath),
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
