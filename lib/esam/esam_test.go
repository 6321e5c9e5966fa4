package esam

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~vejnar/SignalAbacus/lib/chrom"
	"git.sr.ht/~vejnar/SignalAbacus/lib/coverage"
)

func samLine(name string, flag int, ref string, pos int, cigar string) string {
	return strings.Join([]string{name, strconv.Itoa(flag), ref, strconv.Itoa(pos), "60", cigar, "*", "0", "0", "*", "*"}, "\t")
}

func newIndex(t *testing.T) *chrom.Index {
	idx := chrom.NewIndex()
	_, err := idx.Add("chr1", 1000)
	require.NoError(t, err)
	_, err = idx.Add("chr2", 300)
	require.NoError(t, err)
	return idx
}

var testSAM = strings.Join([]string{
	"@HD\tVN:1.6",
	"@SQ\tSN:chr1\tLN:1000",
	samLine("r1", 0, "chr1", 101, "50M"),
	samLine("r2", 16, "chr1", 201, "50M"),
	samLine("r3", 4, "*", 0, "*"),
	samLine("r4", 0, "chrUn", 10, "50M"),
	"r5\t0\tchr2",
	samLine("r6", 256, "chr1", 101, "50M"),
	samLine("r7", 16, "chr2", 11, "20M"),
	samLine("r8", 0, "chr2", 251, "20M"),
}, "\n") + "\n"

func TestReadInto(t *testing.T) {
	idx := newIndex(t)
	r, err := NewReader(idx, DefaultExtendLength)
	require.NoError(t, err)
	track, err := coverage.New(idx, 1)
	require.NoError(t, err)

	stats, err := r.ReadInto(strings.NewReader(testSAM), track)
	require.NoError(t, err)
	assert.Equal(t, ReadStats{Lines: 8, Total: 4, Forward: 2, Reverse: 2, Unmapped: 1, Secondary: 1, UnknownChrom: 1, Malformed: 1}, stats)
	assert.Equal(t, stats.Total, stats.Forward+stats.Reverse)
	assert.Equal(t, uint64(4), stats.Skipped())

	// r1 forward [100,250), r2 reverse ends at 250 so [100,250)
	assert.Equal(t, uint32(0), track.ValueAt(0, 99))
	for pos := 100; pos < 250; pos++ {
		assert.Equal(t, uint32(1), track.StrandValueAt(0, pos, coverage.Forward))
		assert.Equal(t, uint32(1), track.StrandValueAt(0, pos, coverage.Reverse))
	}
	assert.Equal(t, uint32(0), track.ValueAt(0, 250))

	// r7 reverse ends at 30, extension clipped to [0,30)
	assert.Equal(t, uint32(1), track.ValueAt(1, 0))
	assert.Equal(t, uint32(1), track.ValueAt(1, 29))
	assert.Equal(t, uint32(0), track.ValueAt(1, 30))
	// r8 forward [250,400) clipped to [250,300)
	assert.Equal(t, uint32(1), track.ValueAt(1, 299))
	assert.Equal(t, uint32(0), track.ValueAt(1, 249))
}

func TestReadIntoNoTrailingNewline(t *testing.T) {
	idx := newIndex(t)
	r, err := NewReader(idx, 10)
	require.NoError(t, err)
	track, err := coverage.New(idx, 1)
	require.NoError(t, err)
	stats, err := r.ReadInto(strings.NewReader(samLine("a", 0, "chr1", 1, "5M")), track)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), stats.Forward)
	assert.Equal(t, uint32(1), track.ValueAt(0, 9))
	assert.Equal(t, uint32(0), track.ValueAt(0, 10))
}

func TestReadIntoForeignTrack(t *testing.T) {
	r, err := NewReader(newIndex(t), 10)
	require.NoError(t, err)
	track, err := coverage.New(newIndex(t), 1)
	require.NoError(t, err)
	_, err = r.ReadInto(strings.NewReader(""), track)
	assert.Error(t, err)
}

func TestNewReaderInvalid(t *testing.T) {
	_, err := NewReader(newIndex(t), 0)
	assert.Error(t, err)
}

func TestIngestFiles(t *testing.T) {
	idx := newIndex(t)
	dir := t.TempDir()

	plain := filepath.Join(dir, "a.sam")
	require.NoError(t, os.WriteFile(plain, []byte(samLine("a", 0, "chr1", 1, "5M")+"\n"), 0644))

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(samLine("b", 16, "chr2", 100, "5M") + "\n" + samLine("c", 0, "chr2", 1, "5M") + "\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	compressed := filepath.Join(dir, "b.sam.gz")
	require.NoError(t, os.WriteFile(compressed, buf.Bytes(), 0644))

	r, err := NewReader(idx, 20)
	require.NoError(t, err)
	t1, err := coverage.New(idx, 1)
	require.NoError(t, err)
	t2, err := coverage.New(idx, 10)
	require.NoError(t, err)

	stats, err := r.IngestFiles([]Input{
		{Path: NewPathSAM(plain), Track: t1},
		{Path: NewPathSAM(compressed), Track: t2},
	})
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, uint64(1), stats[0].Total)
	assert.Equal(t, uint64(2), stats[1].Total)
	assert.Equal(t, uint64(1), stats[1].Reverse)
	assert.Equal(t, uint32(1), t1.ValueAt(0, 0))
	assert.Equal(t, uint32(0), t2.ValueAt(0, 0))
	// b: reverse, end 104, fragment [84,104)
	assert.Equal(t, uint32(1), t2.ValueAt(1, 85))

	_, err = r.IngestFiles([]Input{{Path: NewPathSAM(filepath.Join(dir, "missing.sam")), Track: t1}})
	assert.Error(t, err)
}

func TestReadIntoUnknownMate(t *testing.T) {
	idx := newIndex(t)
	r, err := NewReader(idx, 50)
	require.NoError(t, err)
	track, err := coverage.New(idx, 1)
	require.NoError(t, err)

	mate := func(name string, pos int, rnext string) string {
		return strings.Join([]string{name, "0", "chr1", strconv.Itoa(pos), "60", "50M", rnext, "500", "0", "*", "*"}, "\t")
	}
	in := strings.Join([]string{
		mate("m1", 101, "chrUn_KI270"),
		mate("m2", 101, "="),
		mate("m3", 101, "chr2"),
		mate("m4", 101, "*"),
	}, "\n") + "\n"
	stats, err := r.ReadInto(strings.NewReader(in), track)
	require.NoError(t, err)
	assert.Equal(t, ReadStats{Lines: 4, Total: 4, Forward: 4}, stats)
	assert.Equal(t, uint32(4), track.ValueAt(0, 100))
	assert.Equal(t, uint32(4), track.ValueAt(0, 149))
	assert.Equal(t, uint32(0), track.ValueAt(0, 150))
}

func TestDropMate(t *testing.T) {
	r, err := NewReader(newIndex(t), 10)
	require.NoError(t, err)
	tests := []struct {
		in, want string
	}{
		{"r\t0\tchr1\t1\t60\t5M\tchrUn\t9\t0\t*\t*", "r\t0\tchr1\t1\t60\t5M\t*\t9\t0\t*\t*"},
		{"r\t0\tchr1\t1\t60\t5M\t=\t9\t0\t*\t*", "r\t0\tchr1\t1\t60\t5M\t=\t9\t0\t*\t*"},
		{"r\t0\tchr1\t1\t60\t5M\tchr2\t9\t0\t*\t*", "r\t0\tchr1\t1\t60\t5M\tchr2\t9\t0\t*\t*"},
		{"r\t0\tchr1", "r\t0\tchr1"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, string(r.dropMate([]byte(tt.in))))
	}
}
