package config

import "testing"

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     ServerConfig
		wantErr bool
	}{
		{
			name: "defaults pass",
			cfg:  *Default(),
		},
		{
			name:    "negative interval",
			cfg:     ServerConfig{Monitor: MonitorConf{IntervalMs: -5}},
			wantErr: true,
		},
		{
			name: "valid cron schedule",
			cfg:  ServerConfig{Monitor: MonitorConf{Schedule: "*/5 * * * *"}},
		},
		{
			name:    "bad cron schedule",
			cfg:     ServerConfig{Monitor: MonitorConf{Schedule: "every now and then"}},
			wantErr: true,
		},
		{
			name: "https webhook",
			cfg:  ServerConfig{Alerts: AlertsConf{WebhookURL: "https://hooks.example.com/x"}},
		},
		{
			name:    "bad webhook scheme",
			cfg:     ServerConfig{Alerts: AlertsConf{WebhookURL: "ftp://nope"}},
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(&tc.cfg)
			if tc.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
