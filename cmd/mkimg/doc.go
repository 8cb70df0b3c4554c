// Command mkimg drives the image build lifecycle: initialize a workspace,
// build compressed sendstream artifacts from frozen volumes, and clean or
// destroy the managed state.
package main
