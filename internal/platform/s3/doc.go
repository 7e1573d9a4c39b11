// Package s3 reads import files from S3-compatible object storage.
//
// Data files given as s3://bucket/key are streamed from the bucket straight
// to the control host without touching local disk.
package s3
