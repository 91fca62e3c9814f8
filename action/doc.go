// Package action defines the polymorphic workflow action model: leaf actions
// that talk to the browser driver (navigate, click, type, wait, screenshot,
// javascript condition), composite control-flow actions (conditional, loop,
// error handling, while loop, template), the generic record wire shape they
// serialize to, and the factory registry that rebuilds action trees from
// records.
//
// Execution of composite actions is the workflow runner's concern; this
// package only knows how to validate, serialize, and execute leaves.
package action
