// Copyright 2025 The GeoFlow Authors
// SPDX-License-Identifier: Apache-2.0

package execution

// dockerArgv wraps a tool command line in the container runtime. The work
// directory is mounted read-write at /data and becomes the container working
// directory, so relative input and output paths survive the wrapping.
func dockerArgv(runtime, image, workDir string, tool []string) []string {
	argv := []string{
		runtime, "run", "--rm",
		"-v", workDir + ":/data",
		"-w", "/data",
		image,
	}
	return append(argv, tool...)
}
