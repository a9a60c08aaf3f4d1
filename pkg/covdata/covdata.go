// Package covdata manages collected coverage data, including file storage.
//
// The data file is a msgpack-encoded map with a schema version, the
// collector name, and per-file sorted line lists, arc pair lists, plugin
// attributions, and test-caller records. In memory the same data lives in
// set-shaped maps so merging stays idempotent.
package covdata

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/stleox/seecov/pkg/collector"
	"github.com/stleox/seecov/pkg/config"
	"github.com/vmihailenco/msgpack/v5"
)

// Bump when the on-disk format changes.
const schemaVersion uint16 = 1

// CallerRecord attributes one observation to one test caller, flattened for
// storage.
type CallerRecord struct {
	From  int  `msgpack:"from"`
	To    int  `msgpack:"to"`
	IsArc bool `msgpack:"is_arc"`

	TestFile string `msgpack:"test_file"`
	TestLine int    `msgpack:"test_line"`
	TestFunc string `msgpack:"test_func"`

	AtLine int `msgpack:"at_line"`
}

type fileFormat struct {
	Schema    uint16                    `msgpack:"schema"`
	Collector string                    `msgpack:"collector"`
	Lines     map[string][]int          `msgpack:"lines"`
	Arcs      map[string][][2]int       `msgpack:"arcs"`
	Plugins   map[string]string         `msgpack:"plugins"`
	Callers   map[string][]CallerRecord `msgpack:"callers"`
}

// Data holds one measurement's coverage data and its file storage location.
type Data struct {
	// a string identifying the collecting software
	Collector string

	// filename -> executed lines
	Lines map[string]map[int]struct{}
	// filename -> executed arcs
	Arcs map[string]map[collector.Arc]struct{}
	// filename -> plugin name
	Plugins map[string]string
	// filename -> test caller records
	Callers map[string][]CallerRecord

	filename string
}

// New creates empty Data stored at basename (default config.DefaultDataFile).
func New(basename string) *Data {
	if basename == "" {
		basename = config.DefaultDataFile
	}
	abs, err := filepath.Abs(basename)
	if err != nil {
		abs = basename
	}
	return &Data{
		Collector: config.DefaultCollector,
		Lines:     make(map[string]map[int]struct{}),
		Arcs:      make(map[string]map[collector.Arc]struct{}),
		Plugins:   make(map[string]string),
		Callers:   make(map[string][]CallerRecord),
		filename:  abs,
	}
}

// Filename is the storage path.
func (d *Data) Filename() string {
	return d.filename
}

// AddCollected folds a collector's maps into the data.
func (d *Data) AddCollected(c *collector.Collector) {
	for file, fd := range c.Data() {
		for line := range fd.Lines {
			d.lineSet(file)[line] = struct{}{}
		}
		for arc := range fd.Arcs {
			d.arcSet(file)[arc] = struct{}{}
		}
	}
	for file, plugin := range c.PluginData() {
		d.Plugins[file] = plugin
	}
	for file, cd := range c.CallersData() {
		for line, set := range cd.Lines {
			for site := range set {
				d.Callers[file] = append(d.Callers[file], callerRecord(0, line, false, site))
			}
		}
		for arc, set := range cd.Arcs {
			for site := range set {
				d.Callers[file] = append(d.Callers[file], callerRecord(arc.From, arc.To, true, site))
			}
		}
	}
}

func callerRecord(from, to int, isArc bool, site collector.CallerSite) CallerRecord {
	return CallerRecord{
		From:     from,
		To:       to,
		IsArc:    isArc,
		TestFile: site.Test.Filename,
		TestLine: site.Test.Line,
		TestFunc: site.Test.FuncName,
		AtLine:   site.At.Line,
	}
}

func (d *Data) lineSet(file string) map[int]struct{} {
	s, hit := d.Lines[file]
	if !hit {
		s = make(map[int]struct{})
		d.Lines[file] = s
	}
	return s
}

func (d *Data) arcSet(file string) map[collector.Arc]struct{} {
	s, hit := d.Arcs[file]
	if !hit {
		s = make(map[collector.Arc]struct{})
		d.Arcs[file] = s
	}
	return s
}

// Write stores the data to its file.
func (d *Data) Write() error {
	return d.WriteFile(d.filename)
}

func (d *Data) WriteFile(path string) error {
	ff := fileFormat{
		Schema:    schemaVersion,
		Collector: d.Collector,
		Lines:     d.LineData(),
		Arcs:      d.ArcData(),
		Plugins:   d.Plugins,
		Callers:   d.Callers,
	}
	raw, err := msgpack.Marshal(&ff)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0644)
}

// Read loads the data from its file. A missing file reads as empty data.
func (d *Data) Read() error {
	return d.ReadFile(d.filename)
}

func (d *Data) ReadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logrus.Debugf("SeeCov found no data file at %s", path)
			return nil
		}
		return err
	}

	var ff fileFormat
	if err := msgpack.Unmarshal(raw, &ff); err != nil {
		return err
	}

	if ff.Collector != "" {
		d.Collector = ff.Collector
	}
	for file, lines := range ff.Lines {
		set := d.lineSet(file)
		for _, line := range lines {
			set[line] = struct{}{}
		}
	}
	for file, arcs := range ff.Arcs {
		set := d.arcSet(file)
		for _, pair := range arcs {
			set[collector.Arc{From: pair[0], To: pair[1]}] = struct{}{}
		}
	}
	for file, plugin := range ff.Plugins {
		d.Plugins[file] = plugin
	}
	for file, records := range ff.Callers {
		d.Callers[file] = append(d.Callers[file], records...)
	}
	return nil
}

// Merge unions another Data into this one.
func (d *Data) Merge(other *Data) {
	for file, lines := range other.Lines {
		set := d.lineSet(file)
		for line := range lines {
			set[line] = struct{}{}
		}
	}
	for file, arcs := range other.Arcs {
		set := d.arcSet(file)
		for arc := range arcs {
			set[arc] = struct{}{}
		}
	}
	for file, plugin := range other.Plugins {
		d.Plugins[file] = plugin
	}
	for file, records := range other.Callers {
		d.Callers[file] = append(d.Callers[file], records...)
	}
}

// LineData returns filename -> sorted executed lines.
func (d *Data) LineData() map[string][]int {
	out := make(map[string][]int, len(d.Lines))
	for file, set := range d.Lines {
		lines := make([]int, 0, len(set))
		for line := range set {
			lines = append(lines, line)
		}
		sort.Ints(lines)
		out[file] = lines
	}
	return out
}

// ArcData returns filename -> sorted executed arc pairs.
func (d *Data) ArcData() map[string][][2]int {
	out := make(map[string][][2]int, len(d.Arcs))
	for file, set := range d.Arcs {
		arcs := make([][2]int, 0, len(set))
		for arc := range set {
			arcs = append(arcs, [2]int{arc.From, arc.To})
		}
		sort.Slice(arcs, func(i, j int) bool {
			if arcs[i][0] != arcs[j][0] {
				return arcs[i][0] < arcs[j][0]
			}
			return arcs[i][1] < arcs[j][1]
		})
		out[file] = arcs
	}
	return out
}

// Summary returns filename -> distinct observation count.
func (d *Data) Summary() map[string]int {
	out := make(map[string]int)
	for file, set := range d.Lines {
		out[file] += len(set)
	}
	for file, set := range d.Arcs {
		out[file] += len(set)
	}
	return out
}

// Files lists all files with data, sorted.
func (d *Data) Files() []string {
	seen := make(map[string]struct{})
	for file := range d.Lines {
		seen[file] = struct{}{}
	}
	for file := range d.Arcs {
		seen[file] = struct{}{}
	}
	files := make([]string, 0, len(seen))
	for file := range seen {
		files = append(files, file)
	}
	sort.Strings(files)
	return files
}
