// Package action maps curator commands to the actions that carry them out.
//
// Every command belongs to exactly one domain (indices, snapshots, or
// cluster). A Registry is built once, never modified, and resolves a
// (domain, command) pair into a Descriptor naming the action identifier
// and the option keys that action accepts.
package action
