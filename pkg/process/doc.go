// Package process defines the nodes of a pipeline: the Process interface,
// its declared ports and flags, and Cluster, a process made of other
// processes whose ports map onto its members.
package process
