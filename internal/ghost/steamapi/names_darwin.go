//go:build darwin

package steamapi

const LibraryName = "libsteam_api.dylib"
