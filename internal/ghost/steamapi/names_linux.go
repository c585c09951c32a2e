//go:build linux

package steamapi

const LibraryName = "libsteam_api.so"
