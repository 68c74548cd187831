package objectstore

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// rootPath prefixes every object this application writes, so the bucket can
// be shared with other academy workloads and still audited at a glance.
const rootPath = "generacion-diplomas"

const (
	categoryTemplates  = "empty-templates"
	categorySignatures = "signatures"
	categoryBatches    = "generated-diplomas"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename replaces anything outside [A-Za-z0-9._-] with underscores.
func SanitizeFilename(name string) string {
	return unsafeKeyChars.ReplaceAllString(name, "_")
}

// Keys are date-partitioned with the upload's UTC date. Workers run in other
// regions; local time would misfile objects near midnight.
func datePartition(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

// BatchCSVKey builds the storage key for an uploaded roster. The batch ID is a
// path component, so every object belonging to one batch shares a prefix and
// folder-level deletion stays possible.
func BatchCSVKey(originalFilename string, batchID int, now time.Time) string {
	safeName := SanitizeFilename(originalFilename)
	if !strings.HasSuffix(strings.ToLower(safeName), ".csv") {
		safeName += ".csv"
	}
	return fmt.Sprintf("%s/%s/%s/proceso-%d/%s", rootPath, categoryBatches, datePartition(now), batchID, safeName)
}

// TemplateKey builds the storage key for an uploaded layout PDF. Templates
// have no durable ID at upload time, so a second-resolution time component
// keeps concurrent uploads from colliding.
func TemplateKey(originalFilename string, now time.Time) string {
	safeName := SanitizeFilename(originalFilename)
	if !strings.HasSuffix(strings.ToLower(safeName), ".pdf") {
		safeName += ".pdf"
	}
	return fmt.Sprintf("%s/%s/%s/%s/%s", rootPath, categoryTemplates, datePartition(now), now.UTC().Format("15-04-05"), safeName)
}

// SignatureKey builds the storage key for an uploaded signature image.
func SignatureKey(originalFilename string, now time.Time) string {
	return fmt.Sprintf("%s/%s/%s/%s", rootPath, categorySignatures, datePartition(now), SanitizeFilename(originalFilename))
}
