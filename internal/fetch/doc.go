// Package fetch retrieves source media from IPFS gateways, remuxes HLS
// manifests into local files with ffmpeg, and publishes finished artifacts
// back to IPFS.
package fetch
