package tracer

import "testing"

func TestDefaultSettings(t *testing.T) {
	settings := DefaultSettings()
	if settings.NumBounces != DefaultNumBounces {
		t.Fatalf("expected %d bounces; got %d", DefaultNumBounces, settings.NumBounces)
	}
	if !settings.EnableNextEventEstimation || !settings.EnableMultipleImportanceSampling {
		t.Fatalf("expected light sampling to be enabled by default")
	}
	if settings.Filter != FilterMitchellNetravali {
		t.Fatalf("expected the mitchell-netravali filter by default; got %s", settings.Filter)
	}
}

func TestEnumLabels(t *testing.T) {
	for filter, want := range map[Filter]string{
		FilterMitchellNetravali: "mitchell-netravali",
		FilterGaussian:          "gaussian",
		FilterBox:               "box",
		Filter(99):              "invalid",
	} {
		if got := filter.String(); got != want {
			t.Fatalf("expected filter label %q; got %q", want, got)
		}
	}
}
