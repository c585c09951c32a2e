//go:build !windows && !linux && !darwin

package steamapi

const LibraryName = "libsteam_api.so"
