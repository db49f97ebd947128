package mesh

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Write encodes m as an ASCII legacy VTK 3.0 unstructured grid.
// Point arrays are written as SCALARS, cell arrays as one FIELD block.
func Write(w io.Writer, m *Mesh) error {
	bw := bufio.NewWriter(w)

	title := m.Title
	if title == "" {
		title = "tentview export"
	}
	fmt.Fprintf(bw, "# vtk DataFile Version 3.0\n%s\nASCII\nDATASET UNSTRUCTURED_GRID\n", title)

	fmt.Fprintf(bw, "POINTS %d double\n", len(m.Points))
	for _, p := range m.Points {
		fmt.Fprintf(bw, "%s %s %s\n", ftoa(p[0]), ftoa(p[1]), ftoa(p[2]))
	}

	size := 0
	for _, c := range m.Cells {
		size += len(c.Points) + 1
	}
	fmt.Fprintf(bw, "\nCELLS %d %d\n", len(m.Cells), size)
	for _, c := range m.Cells {
		bw.WriteString(strconv.Itoa(len(c.Points)))
		for _, id := range c.Points {
			bw.WriteByte(' ')
			bw.WriteString(strconv.Itoa(id))
		}
		bw.WriteByte('\n')
	}

	fmt.Fprintf(bw, "\nCELL_TYPES %d\n", len(m.Cells))
	for _, c := range m.Cells {
		fmt.Fprintln(bw, int(c.Type))
	}

	if len(m.PointData) > 0 {
		fmt.Fprintf(bw, "\nPOINT_DATA %d\n", len(m.Points))
		for _, f := range m.PointData {
			fmt.Fprintf(bw, "SCALARS %s double 1\nLOOKUP_TABLE default\n", f.Name)
			writeValues(bw, f)
		}
	}

	if len(m.CellData) > 0 {
		fmt.Fprintf(bw, "\nCELL_DATA %d\nFIELD FieldData %d\n", len(m.Cells), len(m.CellData))
		for _, f := range m.CellData {
			fmt.Fprintf(bw, "%s 1 %d double\n", f.Name, f.Len())
			writeValues(bw, f)
		}
	}

	return bw.Flush()
}

// WriteFile writes m to path, replacing any existing file.
func WriteFile(path string, m *Mesh) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, m); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeValues(bw *bufio.Writer, f *ScalarField) {
	for i := 0; i < f.Len(); i++ {
		bw.WriteString(ftoa(f.At(i)))
		if (i+1)%9 == 0 || i == f.Len()-1 {
			bw.WriteByte('\n')
		} else {
			bw.WriteByte(' ')
		}
	}
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
