package gpu

import "testing"

func TestParseSMILine(t *testing.T) {
	d, err := parseSMILine("0, NVIDIA GeForce RTX 4090, 24564, 2048, 22516, 35, 62")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.ID != 0 || d.Name != "NVIDIA GeForce RTX 4090" {
		t.Fatalf("unexpected device: %+v", d)
	}
	if d.TotalMB != 24564 || d.UsedMB != 2048 || d.FreeMB != 22516 {
		t.Fatalf("unexpected memory: %+v", d)
	}
	if d.Utilization != 35 || d.Temperature != 62 {
		t.Fatalf("unexpected telemetry: %+v", d)
	}
}

func TestParseSMILine_NAFields(t *testing.T) {
	d, err := parseSMILine("1, Tesla T4, 15360, 100, 15260, [N/A], [N/A]")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.Utilization != 0 || d.Temperature != 0 {
		t.Fatalf("expected zeroed telemetry, got %+v", d)
	}
}

func TestParseSMILine_Malformed(t *testing.T) {
	if _, err := parseSMILine("not a csv line"); err == nil {
		t.Fatal("expected error for malformed line")
	}
}

func TestParseSMIOutput_MultipleDevices(t *testing.T) {
	out := "0, A, 1000, 100, 900, 1, 40\n1, B, 2000, 200, 1800, 2, 41\n"
	devs, err := parseSMIOutput(out)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(devs) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devs))
	}
	if devs[1].ID != 1 || devs[1].FreeMB != 1800 {
		t.Fatalf("unexpected second device: %+v", devs[1])
	}
}

func TestParseSMIOutput_Empty(t *testing.T) {
	devs, err := parseSMIOutput("")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(devs) != 0 {
		t.Fatalf("expected no devices, got %d", len(devs))
	}
}
