package compressor

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestGzipCompressor(t *testing.T) {
	Convey("Given a GzipCompressor", t, func() {
		compressor := NewGzip()

		tempDir, err := os.MkdirTemp("", "gzip_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(tempDir)

		Convey("When compressing a snapshot", func() {
			inputContent := bytes.Repeat([]byte("INSERT INTO cases VALUES (1, 'tenancy');\n"), 200)
			inputFile := filepath.Join(tempDir, "backup-2024-01-15T10-30-00-000Z.sql")
			So(os.WriteFile(inputFile, inputContent, 0644), ShouldBeNil)

			outputFile := inputFile + ".gz"
			err := compressor.Compress(inputFile, outputFile)

			Convey("It should produce a smaller, valid gzip stream", func() {
				So(err, ShouldBeNil)

				info, err := os.Stat(outputFile)
				So(err, ShouldBeNil)
				So(info.Size(), ShouldBeLessThan, int64(len(inputContent)))

				f, err := os.Open(outputFile)
				So(err, ShouldBeNil)
				defer f.Close()

				reader, err := gzip.NewReader(f)
				So(err, ShouldBeNil)
				defer reader.Close()

				var out bytes.Buffer
				_, err = out.ReadFrom(reader)
				So(err, ShouldBeNil)
				So(out.Bytes(), ShouldResemble, inputContent)
			})

			Convey("It should leave the source untouched", func() {
				content, err := os.ReadFile(inputFile)
				So(err, ShouldBeNil)
				So(content, ShouldResemble, inputContent)
			})
		})

		Convey("When the source file does not exist", func() {
			err := compressor.Compress(filepath.Join(tempDir, "nonexistent.sql"), filepath.Join(tempDir, "out.gz"))

			Convey("It should return an error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "failed to open source file")
			})
		})

		Convey("When the destination path is invalid", func() {
			inputFile := filepath.Join(tempDir, "in.sql")
			So(os.WriteFile(inputFile, []byte("x"), 0644), ShouldBeNil)

			err := compressor.Compress(inputFile, "/invalid/path/output.gz")

			Convey("It should return an error", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "failed to create dest file")
			})
		})
	})
}
