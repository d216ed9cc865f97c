/*
Package model holds the descriptors manipulated by mrdev.

A Source describes one repository: its kind of version control system, the
remote URL, the local path of its working copy and backend specific options
such as a branch or a pinned revision.

The Status of a working copy is derived on demand by the backend of its kind.
*/
package model
