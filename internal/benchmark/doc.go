// Package benchmark compares the gosched pools against each other and
// against a plain channel-fed pool under the same workloads.
package benchmark
