package telemetry

import "testing"

func TestExporterTarget(t *testing.T) {
	tests := []struct {
		endpoint     string
		wantHost     string
		wantInsecure bool
	}{
		{"http://localhost:4318", "localhost:4318", true},
		{"http://collector:4318/v1/traces", "collector:4318", true},
		{"https://otel.example.com", "otel.example.com", false},
		{"collector:4318", "collector:4318", true},
		{" collector:4318/ ", "collector:4318", true},
	}

	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			host, insecure := exporterTarget(tt.endpoint)
			if host != tt.wantHost || insecure != tt.wantInsecure {
				t.Errorf("got (%q, %v), want (%q, %v)", host, insecure, tt.wantHost, tt.wantInsecure)
			}
		})
	}
}
