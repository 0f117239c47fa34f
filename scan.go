package formscan

import (
	"context"
	"fmt"
	"strings"
)

// Scan builds an [Index] from an in-memory archive.
//
// Phases run in a fixed order: locate the root span, discover chunks,
// pre-count asset ranges for determinate progress, harvest strings, name the
// image and audio ranges, derive the prefix-based string sets, and group
// sprite frames. Malformed candidates are skipped, never fatal, and empty
// collections are valid results. The only failure mode is cancellation of
// the context supplied via [ScanWithContext]; on failure no index is
// produced, so any index the caller already holds stays valid.
//
// String, image, and audio scans target the chunks conventionally holding
// that data ([TagStrings], [TagTextures], [TagAudio]) and fall back to one
// pass over the whole root span when the targeted scan yields nothing.
func Scan(data []byte, opts ...ScanOption) (*Index, error) {
	cfg := scanConfig{ctx: context.Background(), sink: nopSink{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	ctx, sink, logger := cfg.ctx, cfg.sink, cfg.log()

	sink.SetStatus("Locating FORM / GEN8...")
	form := LocateForm(data)
	logger.Debug("root located",
		"headerOffset", form.HeaderOffset,
		"contentStart", form.ContentStart,
		"contentEnd", form.ContentEnd)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sink.SetStatus("Scanning for chunks...")
	chunks := ScanChunks(data, form.ContentStart, form.ContentEnd)
	if form.Located() {
		root := Chunk{
			Tag:          "FORM",
			HeaderOffset: form.HeaderOffset,
			Size:         form.ContentEnd - form.ContentStart,
			ContentStart: form.ContentStart,
			ContentEnd:   form.ContentEnd,
		}
		chunks = append([]Chunk{root}, chunks...)
	}
	chunks = dedupeChunks(chunks)
	logger.Debug("chunk scan complete", "chunks", len(chunks))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sink.SetStatus("Counting assets for progress...")
	images := targetRanges(data, chunks, form, TagTextures, FindPNGRanges)
	audio := targetRanges(data, chunks, form, TagAudio, FindAudioRanges)
	sink.SetMax(max(1, len(chunks)+1+len(images)+len(audio)+1))

	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sink.SetStatus(fmt.Sprintf("Found chunk: %s @ %d", c.Tag, c.HeaderOffset))
		sink.Step(1)
	}

	sink.SetStatus("Parsing STRG (strings)...")
	strs := targetStrings(data, chunks, form)
	sink.Step(1)
	logger.Debug("string harvest complete", "strings", len(strs))

	sink.SetStatus("Indexing PNG textures (lazy)...")
	for i := range images {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		nameRange(&images[i], data, strs)
		sink.Step(1)
	}

	sink.SetStatus("Indexing audio blobs (lazy)...")
	for i := range audio {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		nameRange(&audio[i], data, strs)
		sink.Step(1)
	}

	sink.SetStatus("Collecting scripts / rooms / objects...")
	sets := deriveSets(strs)
	sink.Step(1)

	sink.SetStatus("Finalizing...")
	idx := newIndex(data, form, chunks, strs, images, audio, sets, cfg.logger)
	logger.Debug("index complete",
		"chunks", len(chunks),
		"strings", len(strs),
		"images", len(images),
		"audio", len(audio),
		"spriteGroups", len(idx.groups))
	return idx, nil
}

// targetRanges runs find over the content of every chunk carrying tag,
// falling back to one pass over the root span when the targeted scan yields
// nothing and the root is non-empty.
func targetRanges(data []byte, chunks []Chunk, form FormBounds, tag string, find func([]byte, int, int) []Asset) []Asset {
	var out []Asset
	for _, c := range chunks {
		if c.Tag == tag {
			out = append(out, find(data, c.ContentStart, c.ContentEnd)...)
		}
	}
	if len(out) == 0 && form.ContentStart < form.ContentEnd {
		out = find(data, form.ContentStart, form.ContentEnd)
	}
	return out
}

// targetStrings harvests the string-table chunks, merging with the harvest
// order preserved, falling back to the whole root span when they yield
// nothing.
func targetStrings(data []byte, chunks []Chunk, form FormBounds) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(ss []string) {
		for _, s := range ss {
			if _, dup := seen[s]; !dup {
				seen[s] = struct{}{}
				out = append(out, s)
			}
		}
	}
	for _, c := range chunks {
		if c.Tag == TagStrings {
			add(HarvestStrings(data, c.ContentStart, c.ContentEnd))
		}
	}
	if len(out) == 0 && form.ContentStart < form.ContentEnd {
		add(HarvestStrings(data, form.ContentStart, form.ContentEnd))
	}
	return out
}

// dedupeChunks drops repeated (tag, header offset) rows, first wins.
func dedupeChunks(chunks []Chunk) []Chunk {
	type key struct {
		tag string
		off int
	}
	seen := make(map[key]struct{}, len(chunks))
	out := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		k := key{c.Tag, c.HeaderOffset}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}

// nameRange fills in the asset's name: an associated string when one lies
// within the window, otherwise a positional placeholder.
func nameRange(a *Asset, data []byte, names []string) {
	if name, ok := AssociateName(data, a.Start, names); ok {
		a.Name = name
		return
	}
	if a.Kind == KindImage {
		a.Name = fmt.Sprintf("image_%d", a.Start)
		return
	}
	a.Name = fmt.Sprintf("audio_%d", a.Start)
}

// Name prefixes conventionally marking asset references in the string table.
var scriptPrefixes = []string{"scr_", "gml_", "script_", "gml_Script"}

// stringSets holds the prefix-derived views over the string list.
type stringSets struct {
	scripts []string
	rooms   []string
	objects []string
	fonts   []string
}

// deriveSets selects the prefix-based views over the string list, first-seen
// order preserved. A string can appear in more than one set.
func deriveSets(strs []string) stringSets {
	var sets stringSets
	for _, s := range strs {
		for _, p := range scriptPrefixes {
			if strings.HasPrefix(s, p) {
				sets.scripts = append(sets.scripts, s)
				break
			}
		}
		if strings.HasPrefix(s, "room_") {
			sets.rooms = append(sets.rooms, s)
		}
		if strings.HasPrefix(s, "obj_") {
			sets.objects = append(sets.objects, s)
		}
		if strings.HasPrefix(s, "fnt_") {
			sets.fonts = append(sets.fonts, s)
		}
	}
	return sets
}

// spritePrefix marks image names treated as animation frames.
const spritePrefix = "spr_"

// groupSprites clusters image assets by the sprite naming convention. The
// canonical name is the lowercased name cut at "_frame" when present,
// otherwise with one trailing _<digits> segment stripped, so "spr_walk_0"
// and "spr_walk_1" share the group "spr_walk". Names without the prefix
// join no group.
func groupSprites(images []Asset) []SpriteGroup {
	var order []string
	frames := make(map[string][]int)
	for i, a := range images {
		low := strings.ToLower(a.Name)
		if !strings.HasPrefix(low, spritePrefix) {
			continue
		}
		name := canonicalSprite(low)
		if _, ok := frames[name]; !ok {
			order = append(order, name)
		}
		frames[name] = append(frames[name], i)
	}
	groups := make([]SpriteGroup, 0, len(order))
	for _, name := range order {
		groups = append(groups, SpriteGroup{Name: name, Frames: frames[name]})
	}
	return groups
}

// canonicalSprite reduces a lowercased sprite name to its group name.
func canonicalSprite(low string) string {
	if j := strings.Index(low, "_frame"); j >= 0 {
		return low[:j]
	}
	if j := strings.LastIndexByte(low, '_'); j > 0 && j+1 < len(low) && allDigits(low[j+1:]) {
		return low[:j]
	}
	return low
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
