package circuit

import (
	"bufio"
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/matzehuels/stackplan/pkg/errors"
	"github.com/matzehuels/stackplan/pkg/floorplan"
)

// ReadBlocks parses a block CSV. The name, w and h columns are required;
// x, y, z, preplaced and type are optional and flagged on each record when
// present. A z column must hold an integer layer on every row.
func ReadBlocks(r io.Reader) ([]BlockRecord, error) {
	rows, cols, err := readTable(r, "name", "w", "h")
	if err != nil {
		return nil, err
	}
	_, hasX := cols["x"]
	_, hasY := cols["y"]
	_, hasZ := cols["z"]
	_, hasPreplaced := cols["preplaced"]

	blocks := make([]BlockRecord, 0, len(rows))
	for line, row := range rows {
		get := func(col string) string { return cell(row, cols, col) }

		rec := BlockRecord{Name: get("name"), Type: get("type")}
		if err := errors.ValidateEntityName(rec.Name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMissingField, err, "row %d", line+2)
		}
		if rec.Type == "" {
			rec.Type = floorplan.TypeHard
		}
		if rec.W, err = parseFloat(get("w"), "w", line); err != nil {
			return nil, err
		}
		if rec.H, err = parseFloat(get("h"), "h", line); err != nil {
			return nil, err
		}
		if rec.W <= 0 || rec.H <= 0 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "row %d: block %s has non-positive size", line+2, rec.Name)
		}
		rec.RealW, rec.RealH = rec.W, rec.H

		if hasX && hasY && get("x") != "" && get("y") != "" {
			if rec.X, err = parseFloat(get("x"), "x", line); err != nil {
				return nil, err
			}
			if rec.Y, err = parseFloat(get("y"), "y", line); err != nil {
				return nil, err
			}
			rec.HasXY = true
		}
		if hasZ {
			z, err := parseFloat(get("z"), "z", line)
			if err != nil {
				return nil, err
			}
			if z != math.Trunc(z) || math.IsInf(z, 0) {
				return nil, errors.New(errors.ErrCodeInvalidInput, "row %d: block %s has non-integral layer %v", line+2, rec.Name, z)
			}
			rec.Z, rec.HasZ = int(z), true
		}
		if hasPreplaced {
			// An empty cell means not preplaced.
			if v := get("preplaced"); v != "" {
				p, err := parseFloat(v, "preplaced", line)
				if err != nil {
					return nil, err
				}
				rec.Preplaced = p != 0
			}
			rec.HasPreplaced = true
		}
		blocks = append(blocks, rec)
	}
	sortBlocks(blocks)
	return blocks, nil
}

// ReadTerminals parses a terminal CSV with name, x and y columns.
func ReadTerminals(r io.Reader) ([]TerminalRecord, error) {
	rows, cols, err := readTable(r, "name", "x", "y")
	if err != nil {
		return nil, err
	}
	terminals := make([]TerminalRecord, 0, len(rows))
	for line, row := range rows {
		t := TerminalRecord{Name: cell(row, cols, "name")}
		if err := errors.ValidateEntityName(t.Name); err != nil {
			return nil, errors.Wrap(errors.ErrCodeMissingField, err, "row %d", line+2)
		}
		if t.X, err = parseFloat(cell(row, cols, "x"), "x", line); err != nil {
			return nil, err
		}
		if t.Y, err = parseFloat(cell(row, cols, "y"), "y", line); err != nil {
			return nil, err
		}
		terminals = append(terminals, t)
	}
	sortTerminals(terminals)
	return terminals, nil
}

// ReadNets parses a net CSV whose "net" column holds a list literal of
// connector names, e.g. "['bk1', 'bk2', 'p3']".
func ReadNets(r io.Reader) ([][]string, error) {
	rows, cols, err := readTable(r, "net")
	if err != nil {
		return nil, err
	}
	nets := make([][]string, 0, len(rows))
	for line, row := range rows {
		names, err := parseNameList(cell(row, cols, "net"))
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "row %d", line+2)
		}
		nets = append(nets, names)
	}
	return nets, nil
}

// ReadPlacements parses a prior floorplan: one "name,x,y,...,z" line per
// block. Columns between y and the last one are ignored.
func ReadPlacements(r io.Reader) (map[string]Placement, error) {
	out := make(map[string]Placement)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		fields := strings.Split(text, ",")
		if len(fields) < 4 {
			return nil, errors.New(errors.ErrCodeMissingField, "line %d: want name,x,y,...,z, got %q", line, text)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "line %d: x", line)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "line %d: y", line)
		}
		z, err := strconv.ParseFloat(strings.TrimSpace(fields[len(fields)-1]), 64)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "line %d: z", line)
		}
		out[strings.TrimSpace(fields[0])] = Placement{X: x, Y: y, Z: int(z)}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// readTable reads a headed CSV and checks required columns exist.
func readTable(r io.Reader, required ...string) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, errors.New(errors.ErrCodeMissingField, "missing header")
	}
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read header")
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, col := range required {
		if _, ok := cols[col]; !ok {
			return nil, nil, errors.New(errors.ErrCodeMissingField, "missing column %q", col)
		}
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read rows")
	}
	return rows, cols, nil
}

func cell(row []string, cols map[string]int, col string) string {
	i, ok := cols[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseFloat(s, field string, line int) (float64, error) {
	if s == "" {
		return 0, errors.New(errors.ErrCodeMissingField, "row %d: missing %s", line+2, field)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeInvalidInput, err, "row %d: %s", line+2, field)
	}
	return v, nil
}

// parseNameList parses a bracketed, comma-separated list of optionally
// quoted names.
func parseNameList(s string) ([]string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, errors.New(errors.ErrCodeInvalidInput, "net %q is not a list", s)
	}
	body := strings.TrimSpace(s[1 : len(s)-1])
	if body == "" {
		return nil, nil
	}
	parts := strings.Split(body, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		name := strings.Trim(strings.TrimSpace(p), `'"`)
		if name == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "net %q has an empty name", s)
		}
		names = append(names, name)
	}
	return names, nil
}
