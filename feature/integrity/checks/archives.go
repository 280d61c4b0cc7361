package checks

import (
	"context"
	"fmt"
	"regexp"

	"rental-directory/core/storage"
	"rental-directory/feature/importer"

	"github.com/minio/minio-go/v7"
)

// archiveKeyPattern matches imports/YYYY/MM/DD/<id>.<csv|json>.
var archiveKeyPattern = regexp.MustCompile(`^` + importer.ArchivePrefix + `/\d{4}/\d{2}/\d{2}/[^/]+\.(csv|json)$`)

// ArchiveReport summarizes the archived import payloads.
type ArchiveReport struct {
	Total      int      `json:"total"`
	Unexpected []string `json:"unexpected"`
}

// CheckArchives lists the archive folder and reports objects outside the
// dated layout.
func CheckArchives(ctx context.Context, client storage.Client, bucket string) (*ArchiveReport, error) {
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", bucket)
	}

	report := &ArchiveReport{Unexpected: []string{}}
	prefix := folderPath(importer.ArchivePrefix)
	opts := minio.ListObjectsOptions{Prefix: prefix, Recursive: true}

	for obj := range client.ListObjects(ctx, bucket, opts) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list archives: %w", obj.Err)
		}
		if obj.Key == prefix {
			continue // folder marker
		}
		report.Total++
		if !archiveKeyPattern.MatchString(obj.Key) {
			report.Unexpected = append(report.Unexpected, obj.Key)
		}
	}

	return report, nil
}
