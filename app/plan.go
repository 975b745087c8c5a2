package app

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"rastercube/domain/core"
	"rastercube/domain/request"
	apperrors "rastercube/internal/errors"
	"rastercube/internal/timeparse"
)

// bandTask is one band to load: where it lives, which slot it occupies
// and the instant it belongs to (sentinel when untimed). The order field
// preserves encounter order for stable sorting and deterministic output.
type bandTask struct {
	variable core.VariableName
	number   int
	when     time.Time
	order    int
}

// fileTask groups the band tasks of one raster file so the file is
// opened once, not once per band.
type fileTask struct {
	location string
	bands    []bandTask
}

// plan is the resolved load schedule for a run.
type plan struct {
	files []fileTask
	// variable encounter order, first sighting wins
	variables []core.VariableName
}

func (p *plan) noteVariable(v core.VariableName, seen map[core.VariableName]bool) {
	if !seen[v] {
		seen[v] = true
		p.variables = append(p.variables, v)
	}
}

// planDirect turns the explicit file list into a load schedule, parsing
// band times up front. A band declaring a time pattern that its raw time
// does not match is a violated metadata contract and fails the plan.
func planDirect(meta request.Metadata) (*plan, error) {
	p := &plan{}
	seen := map[core.VariableName]bool{}
	order := 0

	for _, f := range meta.Files {
		ft := fileTask{location: f.URL}
		for _, b := range f.Bands {
			when, err := bandTime(b)
			if err != nil {
				return nil, apperrors.Wrapf(err, "file %s band %d (%s)", f.URL, b.Number, b.VariableName)
			}
			v := core.VariableName(b.VariableName)
			ft.bands = append(ft.bands, bandTask{
				variable: v,
				number:   b.Number,
				when:     when,
				order:    order,
			})
			p.noteVariable(v, seen)
			order++
		}
		p.files = append(p.files, ft)
	}
	return p, nil
}

// bandTime resolves one band's instant. Both time and pattern present is
// the explicit-format contract; a bare time falls back through the fixed
// layout list; no time at all is the sentinel.
func bandTime(b request.BandDescriptor) (time.Time, error) {
	switch {
	case b.Time != "" && b.TimePattern != "":
		return timeparse.ParseExplicit(b.Time, b.TimePattern)
	case b.Time != "":
		return timeparse.ParseFallback(b.Time), nil
	default:
		return timeparse.Sentinel, nil
	}
}

// keyTimestampPattern is the fixed positional segment embedded in
// object-store keys.
var keyTimestampPattern = regexp.MustCompile(`\d{4}/\d{2}/\d{2}/\d{2}/\d{2}/\d{2}`)

const (
	noTimeSegment = "0000/00/00/00/00/00"
	keyTimeLayout = "2006/01/02/15/04/05"
)

// planObjectStore maps listed keys back to declared band layouts. Keys
// without a mapping entry are skipped; the designated all-zero timestamp
// segment means the file carries no time axis; bands are enumerated
// positionally (1-based) against the declared band list.
func planObjectStore(meta request.Metadata, keys []string) (*plan, error) {
	p := &plan{}
	seen := map[core.VariableName]bool{}
	order := 0

	for _, key := range keys {
		base := path.Base(key)
		name := strings.TrimSuffix(base, path.Ext(base))
		layout, ok := meta.FileMapping[name]
		if !ok {
			continue
		}

		when := timeparse.Sentinel
		if segment := keyTimestampPattern.FindString(key); segment != "" && segment != noTimeSegment {
			t, err := time.Parse(keyTimeLayout, segment)
			if err != nil {
				return nil, apperrors.TimeParse(fmt.Sprintf(
					"key %s embeds timestamp segment %q which is not a valid instant", key, segment))
			}
			when = t
		}

		ft := fileTask{location: fmt.Sprintf("s3://%s/%s", meta.Bucket.Name, key)}
		for i, variable := range layout.Bands {
			v := core.VariableName(variable)
			ft.bands = append(ft.bands, bandTask{
				variable: v,
				number:   i + 1,
				when:     when,
				order:    order,
			})
			p.noteVariable(v, seen)
			order++
		}
		p.files = append(p.files, ft)
	}
	return p, nil
}
