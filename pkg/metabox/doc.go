// Package metabox declares meta boxes: groups of form fields shown on a post's
// edit screen and persisted as post metadata.
//
// Three kinds are provided. Simple stores every field under its own key.
// Group lays fields out in rows of columns and stores them as one JSON object
// under the box key. Repeater renders a list of identical rows the editor can
// add, remove and reorder, stored as one JSON array under the box key.
//
// Boxes hook into a hooks.Dispatcher the same way: add_meta_boxes places the
// box on a Screen, save_post parses the submitted form, and
// admin_enqueue_scripts queues the browser scripts the box needs. Every save
// passes the same gate: the box's inputs are present in the submission, the
// current user holds the box capability for the post, and the box nonce
// verifies.
package metabox
