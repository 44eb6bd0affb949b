package config

import "testing"

func TestConfig_WithDefaultsFillsZeroFields(t *testing.T) {
	c := Config{}.WithDefaults()
	if !c.Validate() {
		t.Fatalf("defaulted config should validate, got %+v", c)
	}
	if c.TickPeriod != DefaultTickPeriod {
		t.Errorf("TickPeriod = %v, want %v", c.TickPeriod, DefaultTickPeriod)
	}
	if c.ReplayWindow != DefaultReplayWindow {
		t.Errorf("ReplayWindow = %v, want %v", c.ReplayWindow, DefaultReplayWindow)
	}
}

func TestConfig_WithDefaultsPreservesSetFields(t *testing.T) {
	c := Config{MaxFrameSize: 900}.WithDefaults()
	if c.MaxFrameSize != 900 {
		t.Errorf("MaxFrameSize = %d, want 900 (explicit value preserved)", c.MaxFrameSize)
	}
	if c.TickPeriod != DefaultTickPeriod {
		t.Errorf("TickPeriod = %v, want default to fill unset field", c.TickPeriod)
	}
}

func TestConfig_ValidateRejectsZeroConfig(t *testing.T) {
	if (Config{}).Validate() {
		t.Fatal("zero-value Config should not validate")
	}
}
