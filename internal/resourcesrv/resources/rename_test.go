package resources

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenameOnCollision(t *testing.T) {
	tests := []struct {
		name      string
		existing  []string
		candidate string
		isFile    bool
		want      string
	}{
		{"no collision returns unchanged", []string{"b.txt"}, "a.txt", true, "a.txt"},
		{"first collision", []string{"a.txt"}, "a.txt", true, "a (1).txt"},
		{"skips taken suffixes", []string{"a.txt", "a (1).txt"}, "a.txt", true, "a (2).txt"},
		{"fills the smallest gap", []string{"a.txt", "a (2).txt"}, "a.txt", true, "a (1).txt"},
		{"folder never splits on dot", []string{"archive.old"}, "archive.old", false, "archive.old (1)"},
		{"file without extension", []string{"README"}, "README", true, "README (1)"},
		{"hidden file keeps the leading dot intact", []string{".gitignore"}, ".gitignore", true, ".gitignore (1)"},
		{"only the last dot is the extension", []string{"a.tar.gz"}, "a.tar.gz", true, "a.tar (1).gz"},
		{"empty folder", nil, "a.txt", true, "a.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RenameOnCollision(tt.existing, tt.candidate, tt.isFile))
		})
	}
}

func TestRenameOnCollisionStable(t *testing.T) {
	// renaming the renamed name again keeps stepping the suffix
	existing := []string{"plan.dwg"}
	got := RenameOnCollision(existing, "plan.dwg", true)
	assert.Equal(t, "plan (1).dwg", got)
	existing = append(existing, got)
	assert.Equal(t, "plan (2).dwg", RenameOnCollision(existing, "plan.dwg", true))
}
