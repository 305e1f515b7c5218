package images

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// pgmMagic identifies the binary (raw) grayscale PGM container.
const pgmMagic = "P5"

// maxDecodePixels caps the raster size Decode will allocate for, so a
// hostile header cannot drive an arbitrarily large or overflowing
// allocation.
const maxDecodePixels = 1 << 30

// FormatError reports a malformed or truncated PGM container.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "pgm: " + e.Reason
}

func formatErrorf(format string, args ...interface{}) error {
	return &FormatError{Reason: fmt.Sprintf(format, args...)}
}

// Decode reads a binary PGM image from r.
//
// The container is a 3-line ASCII header followed by raw samples: the magic
// token "P5", a "<width> <height>" line, a "<maxval>" line, then exactly
// width*height bytes in row-major order with no padding. Comment lines
// starting with '#' between the magic and the dimension line are skipped.
//
// Truncated pixel data is rejected with a FormatError; Decode never returns
// a partially filled image.
func Decode(r io.Reader) (*Image, error) {
	br := bufio.NewReader(r)

	magic, err := readHeaderLine(br)
	if err != nil {
		return nil, err
	}
	if magic != pgmMagic {
		return nil, formatErrorf("bad magic %q, want %q", magic, pgmMagic)
	}

	// Skip comments between the magic and the dimension line.
	line, err := readHeaderLine(br)
	for err == nil && strings.HasPrefix(line, "#") {
		line, err = readHeaderLine(br)
	}
	if err != nil {
		return nil, err
	}

	width, height, err := parseDimensions(line)
	if err != nil {
		return nil, err
	}

	line, err = readHeaderLine(br)
	if err != nil {
		return nil, err
	}
	maxVal, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil {
		return nil, formatErrorf("unparseable max value %q", line)
	}
	if maxVal <= 0 || maxVal > 255 {
		return nil, formatErrorf("unsupported max value %d", maxVal)
	}

	img := New(width, height)
	img.MaxVal = maxVal
	if _, err := io.ReadFull(br, img.Pix); err != nil {
		return nil, formatErrorf("truncated pixel data: need %d bytes: %v", width*height, err)
	}
	return img, nil
}

// Encode writes img to w as a binary PGM: the 3-line header followed by
// Height rows of Width bytes each, ignoring any stride padding. The max
// value is always written as 255, matching the samples Decode accepts.
func Encode(w io.Writer, img *Image) error {
	if _, err := fmt.Fprintf(w, "%s\n%d %d\n255\n", pgmMagic, img.Width, img.Height); err != nil {
		return errors.Wrap(err, "pgm: write header")
	}
	for y := 0; y < img.Height; y++ {
		if _, err := w.Write(img.Row(y)); err != nil {
			return errors.Wrapf(err, "pgm: write row %d", y)
		}
	}
	return nil
}

// ReadFile loads a PGM image from disk.
func ReadFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	img, err := Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return img, nil
}

// WriteFile stores a PGM image on disk.
func WriteFile(path string, img *Image) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return errors.Wrapf(f.Close(), "close %s", path)
}

// readHeaderLine reads one newline-terminated header line. Hitting EOF
// before the header is complete is a container error, not an I/O error.
func readHeaderLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err == io.EOF && line == "" {
		return "", formatErrorf("unexpected end of header")
	}
	if err != nil && err != io.EOF {
		return "", errors.Wrap(err, "pgm: read header")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// parseDimensions parses the "<width> <height>" header line.
func parseDimensions(line string) (int, int, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, formatErrorf("bad dimension line %q", line)
	}
	width, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, formatErrorf("unparseable width %q", fields[0])
	}
	height, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, formatErrorf("unparseable height %q", fields[1])
	}
	if width <= 0 || height <= 0 {
		return 0, 0, formatErrorf("non-positive dimensions %dx%d", width, height)
	}
	// Divide instead of multiplying so the check itself cannot overflow.
	if width > maxDecodePixels/height {
		return 0, 0, formatErrorf("dimensions %dx%d exceed %d pixels", width, height, maxDecodePixels)
	}
	return width, height, nil
}
