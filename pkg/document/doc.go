// Package document converts diagrams to and from a portable JSON document.
//
// # Format
//
//	{
//	  "labels": [
//	    {"id": 0, "html": "<b>app</b>", "left": 100, "top": 100,
//	     "color": "#000000", "backgroundColor": "#ffffff",
//	     "collapsed": false, "visibility": "visible", "title": false}
//	  ],
//	  "lines": [
//	    {"from": 0, "to": 1, "hidden": false, "color": "#000000", "width": 2,
//	     "fromPosition": {"x": 140, "y": 117}, "toPosition": {"x": 300, "y": 117}}
//	  ],
//	  "properties": {"bodyBackgroundColor": "#fafafa"}
//	}
//
// Line positions are the edge anchors at export time. They are written for
// consumers that draw without a router and are ignored on import.
//
// Older documents are accepted as well: labels without "id" are numbered by
// their position, "left" and "top" may be CSS strings such as "120px", and
// "from"/"to" may name a label by its text instead of its ID.
//
// # Export
//
// [Export] writes every node and edge in ascending ID order. [ExportSubtree]
// writes only what [diagram.Store.CollectLinked] reaches from one node.
//
// # Import
//
// Import is planned before anything is touched. [PlanReplace] and
// [PlanMerge] correct the document (see [Correct]), validate it completely
// and compute every node and edge that will be inserted. A document that
// fails validation yields an error for which [IsParseError] is true, and the
// caller's store is left as it was. The plan is applied by the caller,
// typically through a history.BulkImport command so the import can be undone.
//
// Merging appends the document to an existing diagram: label IDs are shifted
// by the number of nodes already present and x coordinates by the current
// right-most box edge, so the merged part lands to the right of the existing
// one. Line endpoints are resolved by ID first and by label text second;
// lines whose endpoints cannot be resolved are skipped.
package document
