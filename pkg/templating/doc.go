/*
Package templating renders alert workflow messages from text/template files.

Templates live in a single directory: files ending in .tmpl are message
templates addressed by their base name, files ending in .part are partials
that templates can include with {{template "name.part" .}}. The directory can
be hot-reloaded with Refresh or watched with Watch.

Every function of the expression library is available as

	{{ keep "datetime_compare" .alert.lastReceived .alert.firingStartTime }}

and, unless its name clashes with a text/template builtin (len, index, slice),
directly:

	{{ uppercase .alert.name }} fired {{ get_firing_time .alert "m" }} minutes ago

Keyword arguments are built with kw:

	{{ if is_business_hours (kw "timezone" "Europe/Berlin") }}page{{ end }}
*/
package templating
