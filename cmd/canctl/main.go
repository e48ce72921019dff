package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"gopkg.in/yaml.v3"

	"example.com/cansubmit/internal/client"
	"example.com/cansubmit/internal/report"
	"example.com/cansubmit/internal/session"
	"example.com/cansubmit/internal/store"
	"example.com/cansubmit/internal/taxonomy"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

const defaultServer = "http://localhost:8080"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}
	cmd := os.Args[1]
	switch cmd {
	case "makes":
		makesCmd(os.Args[2:])
	case "models":
		modelsCmd(os.Args[2:])
	case "parameters":
		parametersCmd(os.Args[2:])
	case "usage":
		usageCmd(os.Args[2:])
	case "submit":
		submitCmd(os.Args[2:])
	case "receipt":
		receiptCmd(os.Args[2:])
	default:
		usage()
	}
}

func usage() {
	fmt.Printf(`canctl %s (built %s) <command> [options]

Commands:
  makes       [--server <url>]
  models      --make <name> [--server <url>]
  parameters  [--query <text>] [--limit <n>] [--server <url>]
  usage       --generation <id> [--server <url>]
  submit      --in <plan.yaml> [--server <url>] [--receipt <file.pdf>]
  receipt     --in <submission.json> --out <file.pdf>
`, version, buildDate)
}

func newContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func makesCmd(args []string) {
	fs := flag.NewFlagSet("makes", flag.ExitOnError)
	server := fs.String("server", defaultServer, "daemon base URL")
	fs.Parse(args)

	ctx, cancel := newContext()
	defer cancel()
	makes, err := client.New(*server).Makes(ctx)
	if err != nil {
		pterm.Error.Printf("fetch makes: %v\n", err)
		os.Exit(1)
	}
	for _, name := range makes {
		fmt.Println(name)
	}
}

func modelsCmd(args []string) {
	fs := flag.NewFlagSet("models", flag.ExitOnError)
	server := fs.String("server", defaultServer, "daemon base URL")
	makeName := fs.String("make", "", "vehicle make")
	fs.Parse(args)

	if *makeName == "" {
		fmt.Println("required: --make")
		os.Exit(1)
	}
	ctx, cancel := newContext()
	defer cancel()
	models, err := client.New(*server).Models(ctx, *makeName)
	if err != nil {
		pterm.Error.Printf("fetch models: %v\n", err)
		os.Exit(1)
	}
	for _, name := range models {
		fmt.Println(name)
	}
}

func parametersCmd(args []string) {
	fs := flag.NewFlagSet("parameters", flag.ExitOnError)
	server := fs.String("server", defaultServer, "daemon base URL")
	query := fs.String("query", "", "substring filter")
	limit := fs.Int("limit", 0, "maximum results (0 for server default)")
	fs.Parse(args)

	ctx, cancel := newContext()
	defer cancel()
	params, err := client.New(*server).Parameters(ctx, *query, *limit)
	if err != nil {
		pterm.Error.Printf("fetch parameters: %v\n", err)
		os.Exit(1)
	}
	data := pterm.TableData{{"ID", "Name"}}
	for _, p := range params {
		data = append(data, []string{strconv.Itoa(p.ID), p.Name})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func usageCmd(args []string) {
	fs := flag.NewFlagSet("usage", flag.ExitOnError)
	server := fs.String("server", defaultServer, "daemon base URL")
	generation := fs.Int("generation", 0, "generation identifier")
	fs.Parse(args)

	if *generation == 0 {
		fmt.Println("required: --generation")
		os.Exit(1)
	}
	ctx, cancel := newContext()
	defer cancel()
	entries, err := client.New(*server).GenerationParameters(ctx, *generation)
	if err != nil {
		pterm.Error.Printf("fetch usage: %v\n", err)
		os.Exit(1)
	}
	if len(entries) == 0 {
		pterm.Info.Println("No submissions recorded for this generation.")
		return
	}
	data := pterm.TableData{{"Parameter", "Entries"}}
	for _, u := range entries {
		data = append(data, []string{u.Name, strconv.Itoa(u.Entries)})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

// signalPlan is one signal of a submission plan file.
type signalPlan struct {
	Parameter   string `yaml:"parameter"`
	CustomName  string `yaml:"customName"`
	CanID       string `yaml:"canId"`
	Formula     string `yaml:"formula"`
	Endian      string `yaml:"endian"`
	Is29Bit     bool   `yaml:"is29bit"`
	BusTypeID   *int   `yaml:"busTypeId"`
	CanBusID    *int   `yaml:"canBusId"`
	DimensionID *int   `yaml:"dimensionId"`
	Bits        []int  `yaml:"bits"`
	Offset      *int   `yaml:"offset"`
	Length      *int   `yaml:"length"`
}

// submitPlan describes a whole submission: the vehicle selection plus the
// signals. Concrete catalog names and custom free text are both accepted;
// custom text wins only where no concrete value is given.
type submitPlan struct {
	Make             string       `yaml:"make"`
	MakeCustom       string       `yaml:"makeCustom"`
	Model            string       `yaml:"model"`
	ModelCustom      string       `yaml:"modelCustom"`
	Generation       int          `yaml:"generation"`
	GenerationCustom string       `yaml:"generationCustom"`
	Signals          []signalPlan `yaml:"signals"`
}

func loadPlan(path string) (submitPlan, error) {
	var plan submitPlan
	f, err := os.Open(path)
	if err != nil {
		return plan, err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(&plan); err != nil {
		return plan, fmt.Errorf("decode plan: %w", err)
	}
	return plan, nil
}

func submitCmd(args []string) {
	fs := flag.NewFlagSet("submit", flag.ExitOnError)
	server := fs.String("server", defaultServer, "daemon base URL")
	in := fs.String("in", "", "submission plan file")
	receiptOut := fs.String("receipt", "", "write a local receipt PDF to this path")
	fs.Parse(args)

	if *in == "" {
		fmt.Println("required: --in")
		os.Exit(1)
	}
	plan, err := loadPlan(*in)
	if err != nil {
		pterm.Error.Printf("load plan: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := newContext()
	defer cancel()
	c := client.New(*server)
	sess := session.New(c)

	spinner, _ := pterm.DefaultSpinner.Start("Loading parameter catalog...")
	params, err := c.Parameters(ctx, "", 0)
	if err != nil {
		spinner.Fail(fmt.Sprintf("parameters: %v", err))
		os.Exit(1)
	}
	sess.LoadParameters(params)
	spinner.Success(fmt.Sprintf("Loaded %d parameters", len(params)))

	applyTaxonomy(ctx, sess.Taxonomy, plan)
	applySignals(sess, plan.Signals)

	payload, err := sess.Assemble()
	if err != nil {
		pterm.Error.Printf("assemble: %v\n", err)
		os.Exit(1)
	}
	res, err := c.Submit(ctx, payload)
	if err != nil {
		pterm.Error.Printf("submit: %v\n", err)
		os.Exit(1)
	}
	pterm.Success.Printf("Submission %d accepted (%d signals)\n", res.ID, res.Saved)

	if *receiptOut != "" {
		rec := store.Record{ID: res.ID, Ts: time.Now().UTC(), Payload: payload}
		rc, err := report.FromRecord(rec)
		if err != nil {
			pterm.Error.Printf("receipt: %v\n", err)
			os.Exit(1)
		}
		if err := report.SaveReceiptPDF(rc, *receiptOut); err != nil {
			pterm.Error.Printf("receipt: %v\n", err)
			os.Exit(1)
		}
		pterm.Info.Printf("Receipt written to %s\n", *receiptOut)
	}
}

func applyTaxonomy(ctx context.Context, cascade *taxonomy.Cascade, plan submitPlan) {
	cascade.SetMakeText(plan.MakeCustom)
	if plan.Make != "" {
		cascade.SelectMake(ctx, taxonomy.PickOption(plan.Make))
	} else {
		cascade.SelectMake(ctx, taxonomy.PickCustom())
	}

	cascade.SetModelText(plan.ModelCustom)
	if plan.Model != "" {
		cascade.SelectModel(ctx, taxonomy.PickOption(plan.Model))
	} else if plan.Make != "" {
		cascade.SelectModel(ctx, taxonomy.PickCustom())
	}

	cascade.SetGenerationText(plan.GenerationCustom)
	if plan.Generation != 0 {
		for _, g := range cascade.GenerationOptions() {
			if g.ID == plan.Generation {
				cascade.SelectGeneration(taxonomy.PickGeneration(g.ID, g.Label))
				return
			}
		}
		pterm.Warning.Printf("generation %d is not offered for this model, keeping manual entry\n", plan.Generation)
	}
	cascade.SelectGeneration(taxonomy.PickCustom())
}

func applySignals(sess *session.Session, signals []signalPlan) {
	for _, sp := range signals {
		d := sess.AddSignal()
		d.ParamText = sp.Parameter
		d.CustomName = sp.CustomName
		d.CanID = sp.CanID
		d.Formula = sp.Formula
		d.Endian = session.Endian(sp.Endian)
		d.Is29Bit = sp.Is29Bit
		d.BusTypeID = sp.BusTypeID
		d.CanBusID = sp.CanBusID
		d.DimensionID = sp.DimensionID
		if len(sp.Bits) > 0 {
			for _, bit := range sp.Bits {
				if !d.Bits.Contains(bit) {
					d.Bits.ToggleBit(bit)
				}
			}
		} else if sp.Offset != nil && sp.Length != nil {
			d.Bits.SetFromRange(*sp.Offset, *sp.Length)
		}
	}
}

func receiptCmd(args []string) {
	fs := flag.NewFlagSet("receipt", flag.ExitOnError)
	in := fs.String("in", "", "exported submission JSON")
	out := fs.String("out", "", "receipt PDF output path")
	fs.Parse(args)

	if *in == "" || *out == "" {
		fmt.Println("required: --in and --out")
		os.Exit(1)
	}
	data, err := os.ReadFile(*in)
	if err != nil {
		pterm.Error.Printf("read submission: %v\n", err)
		os.Exit(1)
	}
	var rec store.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		pterm.Error.Printf("decode submission: %v\n", err)
		os.Exit(1)
	}
	rc, err := report.FromRecord(rec)
	if err != nil {
		pterm.Error.Printf("receipt: %v\n", err)
		os.Exit(1)
	}
	if err := report.SaveReceiptPDF(rc, *out); err != nil {
		pterm.Error.Printf("receipt: %v\n", err)
		os.Exit(1)
	}
	pterm.Success.Printf("Receipt for submission %d written to %s\n", rc.ID, *out)
}
