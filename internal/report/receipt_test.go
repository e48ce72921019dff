package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"example.com/cansubmit/internal/session"
	"example.com/cansubmit/internal/store"
)

func sampleRecord() store.Record {
	vehicle := 46
	makeName := "BMW"
	offset := 8
	length := 16
	return store.Record{
		ID: 3,
		Ts: time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC),
		Payload: session.Payload{
			VehicleID: &vehicle,
			Make:      &makeName,
			Items: []session.Item{{
				ParameterName: "Oil Temp",
				CanID:         "0x545",
				Endian:        session.EndianBig,
				OffsetBits:    &offset,
				LengthBits:    &length,
				SelectedBytes: []int{1, 2},
			}},
		},
	}
}

func TestFromRecordDigestIsStable(t *testing.T) {
	rec := sampleRecord()
	first, err := FromRecord(rec)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	second, err := FromRecord(rec)
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	if first.Digest == "" || first.Digest != second.Digest {
		t.Fatalf("digest %q vs %q", first.Digest, second.Digest)
	}
	if first.ID != 3 || !first.CreatedAt.Equal(rec.Ts) {
		t.Fatalf("receipt = %+v", first)
	}
}

func TestSaveReceiptPDF(t *testing.T) {
	rc, err := FromRecord(sampleRecord())
	if err != nil {
		t.Fatalf("FromRecord: %v", err)
	}
	out := filepath.Join(t.TempDir(), "receipt.pdf")
	if err := SaveReceiptPDF(rc, out); err != nil {
		t.Fatalf("SaveReceiptPDF: %v", err)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("empty receipt file")
	}
}

func TestDigestQR(t *testing.T) {
	png, err := DigestQR("ab12cd34", 128)
	if err != nil {
		t.Fatalf("DigestQR: %v", err)
	}
	if len(png) == 0 {
		t.Fatal("empty png")
	}
	if _, err := DigestQR("  ", 128); err == nil {
		t.Fatal("expected error for blank digest")
	}
}

func TestDigestQRNormalizesInput(t *testing.T) {
	if got := strings.Map(upperHex, strings.ToUpper(" ab:12-cd ")); got != "AB12CD" {
		t.Fatalf("normalized digest = %q", got)
	}
	if _, err := DigestQR("zz", 128); err == nil {
		t.Fatal("expected error for digest without hex digits")
	}
}
