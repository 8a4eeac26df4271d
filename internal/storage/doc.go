// Package storage uploads finished crawl output to S3-compatible
// object storage and hands back presigned download links.
//
// The store works against AWS itself or any S3-compatible endpoint
// (MinIO, LocalStack) via the endpoint override in the configuration.
package storage
