package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ArchiveInfo is what retention policies decide on.
type ArchiveInfo struct {
	Path      string    `json:"path"`
	Name      string    `json:"name,omitempty"`
	Size      int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// RetentionPolicy returns the archives to keep from a newest-first list.
type RetentionPolicy interface {
	Apply(archives []ArchiveInfo) (keep []ArchiveInfo)
}

// CountPolicy keeps the newest MaxCount archives.
type CountPolicy struct {
	MaxCount int
}

func (p *CountPolicy) Apply(archives []ArchiveInfo) []ArchiveInfo {
	if len(archives) <= p.MaxCount {
		return archives
	}
	return archives[:p.MaxCount]
}

// AgePolicy keeps archives younger than MaxAge.
type AgePolicy struct {
	MaxAge time.Duration
}

func (p *AgePolicy) Apply(archives []ArchiveInfo) []ArchiveInfo {
	cutoff := time.Now().Add(-p.MaxAge)
	var keep []ArchiveInfo
	for _, a := range archives {
		if a.CreatedAt.After(cutoff) {
			keep = append(keep, a)
		}
	}
	return keep
}

// SizePolicy keeps the newest archives while their total size stays within
// MaxTotalBytes. The newest archive is always kept.
type SizePolicy struct {
	MaxTotalBytes int64
}

func (p *SizePolicy) Apply(archives []ArchiveInfo) []ArchiveInfo {
	var keep []ArchiveInfo
	var total int64
	for _, a := range archives {
		if len(keep) > 0 && total+a.Size > p.MaxTotalBytes {
			break
		}
		keep = append(keep, a)
		total += a.Size
	}
	return keep
}

// AnyPolicy keeps an archive if any of its policies keeps it.
type AnyPolicy []RetentionPolicy

func (p AnyPolicy) Apply(archives []ArchiveInfo) []ArchiveInfo {
	kept := make(map[string]bool)
	for _, policy := range p {
		for _, a := range policy.Apply(archives) {
			kept[a.Path] = true
		}
	}
	var out []ArchiveInfo
	for _, a := range archives {
		if kept[a.Path] {
			out = append(out, a)
		}
	}
	return out
}

// ListArchives returns the archives in dir, newest first. The creation time
// comes from the archive header, or the file's modification time when the
// header is unreadable. A missing dir yields no archives.
func ListArchives(dir string) ([]ArchiveInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading archive directory: %w", err)
	}

	var out []ArchiveInfo
	for _, e := range entries {
		if e.IsDir() || !isArchive(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		a := ArchiveInfo{
			Path:      filepath.Join(dir, e.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		}
		if h, err := ReadHeader(a.Path); err == nil {
			a.Name = h.Name
			a.CreatedAt = h.CreatedAt
		}
		out = append(out, a)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Path > out[j].Path
	})
	return out, nil
}

// ApplyRetention deletes the archives in dir that policy does not keep and
// returns their paths.
func ApplyRetention(dir string, policy RetentionPolicy) ([]string, error) {
	archives, err := ListArchives(dir)
	if err != nil {
		return nil, err
	}

	keep := make(map[string]bool)
	for _, a := range policy.Apply(archives) {
		keep[a.Path] = true
	}

	var deleted []string
	for _, a := range archives {
		if keep[a.Path] {
			continue
		}
		if err := os.Remove(a.Path); err != nil {
			return deleted, fmt.Errorf("removing %s: %w", filepath.Base(a.Path), err)
		}
		deleted = append(deleted, a.Path)
	}
	return deleted, nil
}

// ParseDuration accepts Go durations ("720h") plus whole days ("30d") and
// weeks ("2w").
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration string")
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}
	switch s[len(s)-1] {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unknown duration suffix in %q", s)
	}
}

// ParseSize accepts byte counts with a B, KB, MB or GB suffix (powers of
// 1024).
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	units := []struct {
		suffix string
		scale  int64
	}{
		{"GB", 1 << 30},
		{"MB", 1 << 20},
		{"KB", 1 << 10},
		{"B", 1},
	}
	for _, u := range units {
		if num, ok := strings.CutSuffix(s, u.suffix); ok {
			n, err := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
			if err != nil || n < 0 {
				return 0, fmt.Errorf("invalid size: %q", s)
			}
			return n * u.scale, nil
		}
	}
	return 0, fmt.Errorf("invalid size: %q (expected suffix: B, KB, MB, GB)", s)
}
