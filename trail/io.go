package trail

import (
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/trailcask/trailcask/format"
	"github.com/trailcask/trailcask/section"
)

// sectionOrder returns every section name in Built in a stable order:
// the fixed structural sections first, then lexicon.<f> sections sorted by
// name (string order, so lexicon.10 precedes lexicon.2), so a package file's
// byte layout is reproducible across runs.
func (b *Built) sectionOrder() []string {
	fixed := []string{
		format.SectionInfo, format.SectionFields, format.SectionUUIDs,
		format.SectionCodebook, format.SectionTOC, format.SectionTrails, format.SectionIndex,
	}
	fixedSet := make(map[string]struct{}, len(fixed))
	for _, n := range fixed {
		fixedSet[n] = struct{}{}
	}

	var lex []string
	for name := range b.Sections {
		if _, ok := fixedSet[name]; !ok {
			lex = append(lex, name)
		}
	}
	sort.Strings(lex)

	return append(fixed, lex...)
}

// Write dispatches to WriteDirectory or WritePackage according to the
// Layout the Encoder was built with (WithLayout), so a caller building
// many stores the same way doesn't have to re-branch on it (spec.md §4.6:
// "Layout is selected by a build option; both are read-compatible"). path
// is a directory for LayoutDirectory, or the destination file's path for
// LayoutPackage.
func (b *Built) Write(path string) error {
	if b.Layout == format.LayoutDirectory {
		return b.WriteDirectory(path)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return b.WritePackage(f)
}

// WriteDirectory writes every section as its own file under dir (spec.md
// §6's directory layout), creating dir if necessary.
func (b *Built) WriteDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, name := range b.sectionOrder() {
		data, ok := b.Sections[name]
		if !ok {
			continue
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return err
		}
	}

	return nil
}

// WritePackage concatenates every section into a single stream, followed by
// a trailing table of contents and a magic footer (spec.md §6's package
// layout), so a reader can mmap the whole file and locate sections without
// a side index file.
func (b *Built) WritePackage(w io.Writer) error {
	var offset uint64
	entries := make([]section.PackageEntry, 0, len(b.Sections))
	for _, name := range b.sectionOrder() {
		data, ok := b.Sections[name]
		if !ok {
			continue
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		entries = append(entries, section.PackageEntry{Name: name, Offset: offset, Length: uint64(len(data))})
		offset += uint64(len(data))
	}

	tocBytes := section.PackageTOC{Entries: entries}.Bytes()
	if _, err := w.Write(tocBytes); err != nil {
		return err
	}

	var footer [12]byte
	binary.LittleEndian.PutUint32(footer[0:4], uint32(len(tocBytes)))
	binary.LittleEndian.PutUint64(footer[4:12], format.Magic)
	if _, err := w.Write(footer[:]); err != nil {
		return err
	}

	return nil
}
