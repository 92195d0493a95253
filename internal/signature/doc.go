// Package signature identifies the runtime environment a notebook was last
// saved from.
//
// A runtime installation owns one signature id, persisted to
// <data_dir>/server_signature on first use and reused afterwards. The id,
// together with the notebook directory and, optionally, the document path
// and server URL, forms the Record stored under
// lc_notebook_meme.lc_server_signature.current. Track pushes the previous
// record to history whenever the environment changes.
package signature
