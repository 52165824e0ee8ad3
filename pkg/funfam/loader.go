package funfam

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// Loader reads the Funfam listing of a CATH version, fetching it into a
// local cache file first when needed.
type Loader struct {
	Client *Client
	// CacheDir holds cath.<version>.funfam.json files. Empty means the working directory.
	CacheDir string
	// CacheFile overrides the cache path entirely.
	CacheFile string
	// NoCache forces a fresh fetch even when the cache file exists.
	NoCache bool
	Log     zerolog.Logger
}

// NewLoader creates a Loader using client and caching into cacheDir.
func NewLoader(client *Client, cacheDir string) *Loader {
	return &Loader{
		Client:   client,
		CacheDir: cacheDir,
		Log:      zerolog.Nop(),
	}
}

// CachePath returns the cache file used for version.
func (l *Loader) CachePath(version string) string {
	if l.CacheFile != "" {
		return l.CacheFile
	}
	return filepath.Join(l.CacheDir, fmt.Sprintf("cath.%s.funfam.json", version))
}

// Load returns every Funfam of version, in payload order.
func (l *Loader) Load(ctx context.Context, version string) ([]Record, error) {
	path := l.CachePath(version)
	if err := l.ensureCache(ctx, version, path); err != nil {
		return nil, err
	}

	l.Log.Info().Str("file", path).Msg("Loading cached Funfam data")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	records, err := ParseFunfams(raw, version)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ensureCache fetches the listing into path unless it is already there.
func (l *Loader) ensureCache(ctx context.Context, version, path string) error {
	if !l.NoCache {
		if _, err := os.Stat(path); err == nil {
			return nil
		} else if !os.IsNotExist(err) {
			return err
		}
	}
	if l.Client == nil {
		return fmt.Errorf("%w: no client configured to fetch %s", ErrFetch, path)
	}

	l.Log.Info().Str("url", l.Client.FunfamsURL(version)).Msg("Fetching Funfam data")
	body, err := l.Client.FetchFunfams(ctx, version)
	if err != nil {
		return err
	}

	l.Log.Info().Str("file", path).Int("bytes", len(body)).Msg("Writing to cache file")
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}
	if err := os.WriteFile(path, body, 0o644); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

// ParseFunfams decodes a {"data": [...]} listing. Missing or null numeric
// fields read as zero.
func ParseFunfams(raw []byte, version string) ([]Record, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("%w: invalid JSON", ErrParse)
	}
	data := gjson.GetBytes(raw, "data")
	if !data.IsArray() {
		return nil, fmt.Errorf("%w: missing \"data\" array", ErrParse)
	}

	var (
		records []Record
		bad     error
	)
	data.ForEach(func(_, ff gjson.Result) bool {
		if !ff.IsObject() {
			bad = fmt.Errorf("%w: entry %d is not an object", ErrParse, len(records))
			return false
		}
		sfam := ff.Get("superfamily_id").String()
		if sfam == "" {
			bad = fmt.Errorf("%w: entry %d has no superfamily_id", ErrParse, len(records))
			return false
		}
		records = append(records, Record{
			CathVersion:         version,
			Name:                ff.Get("name").String(),
			FunfamNumber:        int(ff.Get("funfam_number").Int()),
			SuperfamilyID:       sfam,
			RepID:               ff.Get("rep_id").String(),
			RepSourceID:         ff.Get("rep_source_id").String(),
			SeedDopsScore:       ff.Get("seed_dops_score").Float(),
			InclusionBitscore:   ff.Get("inclusion_bitscore").Float(),
			InclusionEValue:     ff.Get("inclusion_e_value").Float(),
			NumMembersInFunfam:  int(ff.Get("num_members_in_funfam").Int()),
			NumMembersInSeedAln: int(ff.Get("num_members_in_seed_aln").Int()),
		})
		return true
	})
	if bad != nil {
		return nil, bad
	}
	return records, nil
}
