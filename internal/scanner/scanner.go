package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/KnockOutEZ/copydeck/internal/source"
	"github.com/KnockOutEZ/copydeck/internal/utils"
)

type Options struct {
	Ignore        []string
	IncludeHidden bool
	MaxFileSize   int64

	// Encoding of the files, or utils.EncodingAuto to detect per file.
	Encoding string

	Progress *progressbar.ProgressBar
	Logger   *zap.Logger
}

// Scanner expands file patterns and reads the matching files as UTF-8 text.
type Scanner struct {
	opts    Options
	matcher *utils.Matcher
	logger  *zap.Logger
}

func New(opts Options) *Scanner {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Encoding == "" {
		opts.Encoding = utils.EncodingAuto
	}

	return &Scanner{
		opts:    opts,
		matcher: utils.NewMatcher(opts.Ignore, false),
		logger:  logger,
	}
}

// Scan expands patterns and returns the matching text files, sorted by path.
// A literal path that doesn't exist, or a pattern that matches nothing, is an
// error. Ignored, hidden, oversized and binary files are skipped.
func (s *Scanner) Scan(patterns []string) ([]source.Item, error) {
	paths, err := s.expand(patterns)
	if err != nil {
		return nil, errors.Trace(err)
	}

	if s.opts.Progress != nil {
		s.opts.Progress.ChangeMax(len(paths))
		defer s.opts.Progress.Finish()
	}

	var items []source.Item
	for _, path := range paths {
		item, ok, err := s.read(path)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if ok {
			items = append(items, item)
		}
		if s.opts.Progress != nil {
			s.opts.Progress.Add(1)
		}
	}

	return items, nil
}

func (s *Scanner) expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string

	for _, pattern := range patterns {
		matches, err := s.expandOne(pattern)
		if err != nil {
			return nil, errors.Trace(err)
		}

		for _, m := range matches {
			m = filepath.Clean(m)
			if seen[m] {
				continue
			}
			seen[m] = true
			paths = append(paths, m)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// expandOne resolves a single pattern. A literal file is always returned;
// the user named it. Directories and globs go through the ignore and hidden
// filters, hidden-ness being judged below the pattern's base only.
func (s *Scanner) expandOne(pattern string) ([]string, error) {
	if !utils.HasMeta(pattern) {
		info, err := os.Stat(pattern)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.NotFoundf("file %q", pattern)
			}
			return nil, errors.Trace(err)
		}
		if info.IsDir() {
			return s.expandOne(filepath.ToSlash(pattern) + "/**")
		}
		return []string{pattern}, nil
	}

	base, rest := doublestar.SplitPattern(filepath.ToSlash(pattern))
	if !doublestar.ValidatePattern(rest) {
		return nil, errors.NotValidf("pattern %q", pattern)
	}

	matches, err := doublestar.Glob(os.DirFS(base), rest, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Annotatef(err, "expanding %q", pattern)
	}
	if len(matches) == 0 {
		return nil, errors.NotFoundf("files matching %q", pattern)
	}

	var paths []string
	for _, m := range matches {
		path := filepath.Join(filepath.FromSlash(base), filepath.FromSlash(m))
		if s.matcher.Ignored(m) {
			s.logger.Debug("Skipping ignored file", zap.String("path", path))
			continue
		}
		if !s.opts.IncludeHidden && hidden(filepath.FromSlash(base), filepath.FromSlash(m)) {
			s.logger.Debug("Skipping hidden file", zap.String("path", path))
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func (s *Scanner) read(path string) (source.Item, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return source.Item{}, false, errors.Trace(err)
	}
	if s.opts.MaxFileSize > 0 && info.Size() > s.opts.MaxFileSize {
		s.logger.Warn("Skipping large file",
			zap.String("path", path),
			zap.Int64("size", info.Size()),
			zap.Int64("maxFileSize", s.opts.MaxFileSize),
		)
		return source.Item{}, false, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return source.Item{}, false, errors.Annotatef(err, "reading %s", path)
	}

	enc := s.opts.Encoding
	detect := strings.EqualFold(enc, utils.EncodingAuto)
	if detect {
		// Only sniff when guessing; an explicit encoding such as UTF-16
		// without a BOM looks binary to the sniffer.
		if mtype, isText := utils.DetectMimeType(content); !isText {
			s.logger.Debug("Skipping binary file", zap.String("path", path), zap.String("mime", mtype))
			return source.Item{}, false, nil
		}
		if enc, err = utils.DetectEncoding(content); err != nil {
			s.logger.Debug("Encoding not detected, assuming UTF-8", zap.String("path", path), zap.Error(err))
			enc = "UTF-8"
		}
	}

	text, err := utils.DecodeText(content, enc)
	if err != nil {
		if !detect {
			return source.Item{}, false, errors.Annotatef(err, "%s", path)
		}
		// A guess we can't decode is no reason to fail the whole scan.
		s.logger.Debug("Detected encoding unsupported, keeping raw bytes",
			zap.String("path", path), zap.String("encoding", enc), zap.Error(err))
		text, enc = string(content), "UTF-8"
	}

	return source.Item{
		Name:     filepath.ToSlash(path),
		Content:  text,
		Origin:   source.OriginFile,
		Encoding: enc,
	}, true, nil
}

// hidden reports whether rel, or any directory between base and rel, is
// hidden.
func hidden(base, rel string) bool {
	for p := rel; ; {
		if utils.IsHiddenFile(filepath.Join(base, p)) {
			return true
		}
		parent := filepath.Dir(p)
		if parent == p || parent == "." {
			return false
		}
		p = parent
	}
}
