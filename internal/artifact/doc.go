// Package artifact handles the optional data file of a workload.
//
// A data file is opened from local disk or from S3, uploaded to the
// workload's directory on the control host and, when it is an archive,
// expanded there. The import file is then located by extension, skipping
// platform metadata entries such as __MACOSX/ and AppleDouble ._ files.
package artifact
