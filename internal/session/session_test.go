package session

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"example.com/cansubmit/internal/catalog"
	"example.com/cansubmit/internal/taxonomy"
)

type stubSource struct{}

func (stubSource) Makes(ctx context.Context) ([]string, error) {
	return []string{"BMW"}, nil
}

func (stubSource) Models(ctx context.Context, makeName string) ([]string, error) {
	return []string{"3 Series"}, nil
}

func (stubSource) Generations(ctx context.Context, makeName, modelName string) ([]taxonomy.Generation, error) {
	return []taxonomy.Generation{{ID: 46, Label: "E46"}}, nil
}

func TestSerializeKnownParameter(t *testing.T) {
	s := New(stubSource{})
	s.LoadParameters([]catalog.Entry{{ID: 10, Name: "Engine RPM"}})

	d := s.AddSignal()
	d.ParamText = "Engine RPM"
	d.CanID = "0x123"
	d.Endian = EndianBig
	d.Bits.SetFromRange(8, 16)

	item, err := d.Serialize(s.Params)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if item.ParameterID == nil || *item.ParameterID != 10 {
		t.Fatalf("ParameterID = %v, want 10", item.ParameterID)
	}
	if item.ParameterName != "" {
		t.Fatalf("ParameterName = %q, want empty", item.ParameterName)
	}
	if item.CanID != "0x123" || item.Endian != EndianBig {
		t.Fatalf("item = %+v", item)
	}
	if item.OffsetBits == nil || *item.OffsetBits != 8 || item.LengthBits == nil || *item.LengthBits != 16 {
		t.Fatalf("offset/length = %v/%v, want 8/16", item.OffsetBits, item.LengthBits)
	}
	wantBits := make([]int, 0, 16)
	for i := 8; i < 24; i++ {
		wantBits = append(wantBits, i)
	}
	if !reflect.DeepEqual(item.SelectedBits, wantBits) {
		t.Fatalf("SelectedBits = %v", item.SelectedBits)
	}
	if !reflect.DeepEqual(item.SelectedBytes, []int{1, 2}) {
		t.Fatalf("SelectedBytes = %v", item.SelectedBytes)
	}
}

func TestSerializeUnmatchedParameterBecomesCustom(t *testing.T) {
	s := New(stubSource{})
	s.LoadParameters([]catalog.Entry{{ID: 10, Name: "Engine RPM"}})

	d := s.AddSignal()
	d.ParamText = "Oil Temp"
	d.CanID = "0x123"
	d.Endian = EndianBig

	item, err := d.Serialize(s.Params)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if item.ParameterID != nil {
		t.Fatalf("ParameterID = %v, want null", item.ParameterID)
	}
	if item.ParameterName != "Oil Temp" {
		t.Fatalf("ParameterName = %q", item.ParameterName)
	}
}

func TestSerializeCustomNameOverrideWins(t *testing.T) {
	s := New(stubSource{})
	d := s.AddSignal()
	d.ParamText = Sentinel
	d.CustomName = "Boost Pressure"
	d.CanID = "0x200"
	d.Endian = EndianLittle

	item, err := d.Serialize(s.Params)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if item.ParameterName != "Boost Pressure" {
		t.Fatalf("ParameterName = %q", item.ParameterName)
	}
}

func TestSerializeValidationFailures(t *testing.T) {
	cases := []struct {
		name string
		mut  func(*SignalDefinition)
		want error
	}{
		{"missing can id", func(d *SignalDefinition) { d.CanID = "  " }, ErrMissingCanID},
		{"missing endianness", func(d *SignalDefinition) { d.Endian = "" }, ErrMissingEndianness},
		{"bogus endianness", func(d *SignalDefinition) { d.Endian = "middle" }, ErrMissingEndianness},
		{"sentinel without custom name", func(d *SignalDefinition) {
			d.ParamText = Sentinel
			d.CustomName = ""
		}, ErrUnresolvedParameter},
		{"empty parameter", func(d *SignalDefinition) {
			d.ParamText = ""
			d.CustomName = ""
		}, ErrUnresolvedParameter},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := New(stubSource{})
			d := s.AddSignal()
			d.ParamText = "Oil Temp"
			d.CanID = "0x123"
			d.Endian = EndianBig
			tc.mut(d)
			if _, err := d.Serialize(s.Params); !errors.Is(err, tc.want) {
				t.Fatalf("Serialize err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSerializeEmptyBitsYieldsNullRange(t *testing.T) {
	s := New(stubSource{})
	d := s.AddSignal()
	d.ParamText = "Oil Temp"
	d.CanID = "0x123"
	d.Endian = EndianLittle

	item, err := d.Serialize(s.Params)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if item.OffsetBits != nil || item.LengthBits != nil {
		t.Fatalf("offset/length = %v/%v, want null/null", item.OffsetBits, item.LengthBits)
	}
	if len(item.SelectedBits) != 0 || len(item.SelectedBytes) != 0 {
		t.Fatalf("selection not empty: %v %v", item.SelectedBits, item.SelectedBytes)
	}
}

func TestAssembleEmptySessionWithCustomTaxonomy(t *testing.T) {
	s := New(stubSource{})
	s.Taxonomy.SelectMake(context.Background(), taxonomy.PickCustom())
	s.Taxonomy.SetMakeText("GAZ")

	p, err := s.Assemble()
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if p.VehicleID != nil {
		t.Fatalf("VehicleID = %v, want null", p.VehicleID)
	}
	if len(p.Items) != 0 {
		t.Fatalf("Items = %v, want empty", p.Items)
	}
	if p.Make != nil || p.MakeCustom == nil || *p.MakeCustom != "GAZ" {
		t.Fatalf("payload = %+v", p)
	}
}

func TestAssembleStopsAtFirstInvalidSignal(t *testing.T) {
	ctx := context.Background()
	s := New(stubSource{})
	s.Taxonomy.SelectMake(ctx, taxonomy.PickOption("BMW"))
	s.Taxonomy.SelectModel(ctx, taxonomy.PickOption("3 Series"))
	s.Taxonomy.SelectGeneration(taxonomy.PickGeneration(46, "E46"))

	good := s.AddSignal()
	good.ParamText = "Oil Temp"
	good.CanID = "0x123"
	good.Endian = EndianBig

	bad := s.AddSignal()
	bad.ParamText = "Coolant Temp"
	bad.Endian = EndianBig

	_, err := s.Assemble()
	if !errors.Is(err, ErrMissingCanID) {
		t.Fatalf("Assemble err = %v, want %v", err, ErrMissingCanID)
	}
}

func TestAssembleConcreteTaxonomy(t *testing.T) {
	ctx := context.Background()
	s := New(stubSource{})
	s.Taxonomy.SelectMake(ctx, taxonomy.PickOption("BMW"))
	s.Taxonomy.SelectModel(ctx, taxonomy.PickOption("3 Series"))
	s.Taxonomy.SelectGeneration(taxonomy.PickGeneration(46, "E46"))

	p, err := s.Assemble()
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if p.VehicleID == nil || *p.VehicleID != 46 {
		t.Fatalf("VehicleID = %v, want 46", p.VehicleID)
	}
	if p.Make == nil || *p.Make != "BMW" || p.Model == nil || *p.Model != "3 Series" {
		t.Fatalf("payload = %+v", p)
	}
	if p.GenerationLabel == nil || *p.GenerationLabel != "E46" {
		t.Fatalf("GenerationLabel = %v", p.GenerationLabel)
	}
}

func TestRemoveSignalKeepsSiblings(t *testing.T) {
	s := New(stubSource{})
	first := s.AddSignal()
	second := s.AddSignal()
	third := s.AddSignal()

	if !s.RemoveSignal(second) {
		t.Fatalf("RemoveSignal returned false")
	}
	if s.RemoveSignal(second) {
		t.Fatalf("double removal succeeded")
	}
	got := s.Signals()
	if len(got) != 2 || got[0] != first || got[1] != third {
		t.Fatalf("Signals() = %v", got)
	}
}
