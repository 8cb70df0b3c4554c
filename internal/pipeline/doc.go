// Package pipeline sequences a single image build from identity allocation
// through volume creation, image construction, materialization, freezing,
// and artifact compression.
package pipeline
