package main

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/tentview/internal/config"
	"github.com/san-kum/tentview/internal/export"
	"github.com/san-kum/tentview/internal/mesh"
	"github.com/san-kum/tentview/internal/reactor"
	"github.com/san-kum/tentview/internal/session"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

func runInspect(cmd *cobra.Command, args []string) error {
	m, err := mesh.Load(args[0])
	if err != nil {
		return err
	}

	b := m.Bounds()
	fmt.Printf("file: %s\n", args[0])
	fmt.Printf("title: %s\n", m.Title)
	fmt.Printf("points: %d\n", len(m.Points))
	fmt.Printf("cells: %d\n", len(m.Cells))
	fmt.Printf("bounds: x[%g, %g] y[%g, %g] z[%g, %g]\n\n",
		b.Min[0], b.Max[0], b.Min[1], b.Max[1], b.Min[2], b.Max[2])

	types := make(map[mesh.CellType]int)
	for _, c := range m.Cells {
		types[c.Type]++
	}
	ids := make([]int, 0, len(types))
	for t := range types {
		ids = append(ids, int(t))
	}
	sort.Ints(ids)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CELL TYPE\tDIM\tCOUNT")
	for _, id := range ids {
		t := mesh.CellType(id)
		fmt.Fprintf(w, "%d\t%d\t%d\n", id, t.Dimension(), types[t])
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "FIELD\tASSOC\tMIN\tMAX")
	for _, f := range m.Fields() {
		fmt.Fprintf(w, "%s\t%s\t%g\t%g\n", f.Name, f.Association, f.Range.Min, f.Range.Max)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	f, err := m.DefaultField()
	if err != nil {
		return nil
	}
	if field != "" {
		var ok bool
		if f, ok = m.Field(field); !ok {
			return fmt.Errorf("unknown field: %s", field)
		}
	}

	counts := histogram(f, bins)
	if len(counts) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(counts,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s distribution [%g, %g]", f.Name, f.Range.Min, f.Range.Max)),
		))
	}
	return nil
}

func histogram(f *mesh.ScalarField, n int) []float64 {
	if n < 2 {
		n = 2
	}
	counts := make([]float64, n)
	span := f.Range.Span()
	for i := 0; i < f.Len(); i++ {
		v := f.At(i)
		if math.IsNaN(v) {
			continue
		}
		bin := 0
		if span > 0 {
			bin = int((v - f.Range.Min) / span * float64(n))
		}
		if bin >= n {
			bin = n - 1
		}
		counts[bin]++
	}
	return counts
}

func runCheck(cmd *cobra.Command, args []string) error {
	failed := 0
	for _, path := range args {
		m, err := mesh.Load(path)
		if err != nil {
			failed++
			msg := err.Error()
			if errors.Is(err, mesh.ErrFileNotFound) {
				msg = "file not found"
			}
			fmt.Printf("%s %s %s\n", failStyle.Render("✗"), path, dimStyle.Render(msg))
			continue
		}
		names := ""
		for i, f := range m.Fields() {
			if i > 0 {
				names += ", "
			}
			names += f.Name
		}
		if names == "" {
			names = "no scalar fields"
		}
		fmt.Printf("%s %s %s\n", okStyle.Render("✓"), path,
			dimStyle.Render(fmt.Sprintf("%d points, %d cells, %s", len(m.Points), len(m.Cells), names)))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files invalid", failed, len(args))
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	opts, err := reactorOptions(cmd, cfg, logger)
	if err != nil {
		return err
	}

	r, err := reactor.Open(args[0], nil, opts)
	if err != nil {
		return err
	}
	g := r.Geometry()
	if err := mesh.WriteFile(outPath, g.Mesh); err != nil {
		return err
	}
	fmt.Printf("field: %s\n", g.Field)
	fmt.Printf("bounds: [%g, %g]\n", g.Lower, g.Upper)
	fmt.Printf("elements: %d of %d\n", g.Len(), len(r.Mesh().Cells))
	fmt.Printf("wrote %s\n", outPath)

	if svgPath != "" {
		if err := export.SVGFile(svgPath, r.Scene(), 1024, 768, export.DefaultCamera()); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
	}
	return nil
}

func listSessions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	sessions, err := session.New(cfg.DataDir).List()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("no sessions found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tFIELD\tLEVEL\tELEMENTS\tMESH")
	for _, s := range sessions {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%g\t%d\t%s\n",
			s.ID,
			s.Name,
			s.Timestamp.Format("2006-01-02 15:04:05"),
			s.State.Field,
			s.State.Threshold,
			s.Elements,
			s.Mesh,
		)
	}
	return w.Flush()
}

func removeSession(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := session.New(cfg.DataDir).Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("removed %s\n", args[0])
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tTHEME\tMODE\tBASE\tREPRESENTATION\tCOLORMAPS")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%v\n",
			name, p.Theme, p.Threshold.Mode, p.BaseLayer.Enabled, p.Representation, p.Colormaps)
	}
	return w.Flush()
}
