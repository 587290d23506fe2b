package scheduler

import (
	"reflect"
	"testing"

	"whisperd/internal/gpu"
)

func TestCheck_AdmitWhenAllDevicesClearMargin(t *testing.T) {
	r := newRig(t, Config{}, device8G(0), device8G(1))
	dec, err := r.s.Check(testCtx(t), "base", []int{0, 1})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !dec.Admit {
		t.Fatalf("expected admit, got %+v", dec)
	}
	// 1024 * 1.25
	if dec.RequiredMB != 1280 {
		t.Fatalf("required=%d, want 1280", dec.RequiredMB)
	}
}

func TestCheck_RejectBelowMargin(t *testing.T) {
	// free == footprint exactly: fails because margin > 1.0.
	r := newRig(t, Config{}, gpu.Device{ID: 0, TotalMB: 2048, UsedMB: 1024, FreeMB: 1024})
	dec, err := r.s.Check(testCtx(t), "base", []int{0})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if dec.Admit {
		t.Fatalf("expected reject")
	}
	if len(dec.Insufficient) != 1 || dec.Insufficient[0].DeviceID != 0 {
		t.Fatalf("insufficient=%+v", dec.Insufficient)
	}
	if dec.Insufficient[0].FreeMB != 1024 || dec.Insufficient[0].RequiredMB != 1280 {
		t.Fatalf("shortfall=%+v", dec.Insufficient[0])
	}
}

func TestCheck_AllOrNothingAcrossDevices(t *testing.T) {
	// Device 0 fits, device 1 does not: the whole job is rejected.
	r := newRig(t, Config{}, device8G(0), gpu.Device{ID: 1, TotalMB: 2048, FreeMB: 256, UsedMB: 1792})
	dec, err := r.s.Check(testCtx(t), "base", []int{0, 1})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if dec.Admit {
		t.Fatalf("expected reject when one device is short")
	}
	if len(dec.Insufficient) != 1 || dec.Insufficient[0].DeviceID != 1 {
		t.Fatalf("insufficient=%+v", dec.Insufficient)
	}
}

func TestCheck_EmptyDevicesAlwaysAdmits(t *testing.T) {
	r := newRig(t, Config{}) // zero devices present
	dec, err := r.s.Check(testCtx(t), "large-v3", nil)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !dec.Admit {
		t.Fatalf("CPU fallback must always admit")
	}
}

func TestCheck_UnknownModel(t *testing.T) {
	r := newRig(t, Config{}, device8G(0))
	_, err := r.s.Check(testCtx(t), "huge-v9", []int{0})
	if err == nil || !IsUnknownModel(err) {
		t.Fatalf("expected unknown model error, got %v", err)
	}
}

func TestCheck_DeviceNotFound(t *testing.T) {
	r := newRig(t, Config{}, device8G(0))
	_, err := r.s.Check(testCtx(t), "base", []int{5})
	if err == nil || !IsDeviceNotFound(err) {
		t.Fatalf("expected device not found, got %v", err)
	}
}

func TestCheck_RecommendationsLargestFirst(t *testing.T) {
	// 2048 free: tiny (640 with margin) and base (1280) fit, small (2560)
	// does not.
	r := newRig(t, Config{}, gpu.Device{ID: 0, TotalMB: 12288, UsedMB: 10240, FreeMB: 2048})
	dec, err := r.s.Check(testCtx(t), "large", []int{0})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if dec.Admit {
		t.Fatalf("expected reject")
	}
	want := []string{"base", "tiny"}
	if !reflect.DeepEqual(dec.Recommended, want) {
		t.Fatalf("recommended=%v, want %v", dec.Recommended, want)
	}
}

func TestCheck_RecommendationsUseSmallestFreeAmongRequested(t *testing.T) {
	r := newRig(t, Config{},
		gpu.Device{ID: 0, TotalMB: 12288, UsedMB: 4096, FreeMB: 8192},
		gpu.Device{ID: 1, TotalMB: 12288, UsedMB: 11648, FreeMB: 640})
	dec, err := r.s.Check(testCtx(t), "large", []int{0, 1})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if dec.Admit {
		t.Fatalf("expected reject")
	}
	// Only tiny fits 640 MiB.
	want := []string{"tiny"}
	if !reflect.DeepEqual(dec.Recommended, want) {
		t.Fatalf("recommended=%v, want %v", dec.Recommended, want)
	}
}

func TestCheck_IsPureNoStateMutation(t *testing.T) {
	r := newRig(t, Config{}, device8G(0))
	for i := 0; i < 3; i++ {
		if _, err := r.s.Check(testCtx(t), "base", []int{0}); err != nil {
			t.Fatalf("check: %v", err)
		}
	}
	if got := r.s.Jobs(); len(got.Jobs) != 0 || got.QueueDepth != 0 {
		t.Fatalf("check must not queue anything: %+v", got)
	}
}

func TestMapProgressBand(t *testing.T) {
	cases := map[int]int{0: 15, 10: 20, 50: 55, 99: 90, 100: 95, -5: 15, 130: 95}
	for in, want := range cases {
		if got := mapProgress(in); got != want {
			t.Fatalf("mapProgress(%d)=%d, want %d", in, got, want)
		}
	}
}
