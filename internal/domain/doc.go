// Package domain models New York State Covid-19 county testing data.
//
// # Data Source
//
// Records originate from the NY State Department of Health open-data dataset
// xdss-u53e ("New York State Statewide COVID-19 Testing"), served by the
// Socrata API at https://health.data.ny.gov/resource/xdss-u53e.json. One
// record covers one (county, date) pair and carries four metrics: new
// positives, cumulative positives, total tests, and cumulative tests. Socrata
// serializes every field as a string, including the counts.
//
// # Date Conventions
//
// Test dates arrive as ISO-8601 timestamps ("2021-01-02T00:00:00.000"). Only
// the calendar date is meaningful; the time-of-day suffix is truncated on
// parse and every lookup key in this package is a plain "2006-01-02" string.
// Keeping one normalized format end to end matters: the generated page looks
// dates up by exact string match, so a stray suffix on either side produces
// an empty lookup instead of data.
//
// # Effective Start Date
//
// The upstream dataset covers only a small fraction of counties on its very
// first date. [DateBounds] therefore reports the second-earliest distinct
// date as the effective start, so the page never seeds its slider with a
// sparse day. This is a deliberate policy, not a bug.
//
// # County Join
//
// Records name counties by display name with no FIPS code. Geography features
// carry both. The two sources are joined by [CountyKey], a normalized name
// key resolved once at load time. An unresolved join fails with
// [MissingCountyDataError] rather than silently misaligning the positional
// metric arrays the page depends on.
package domain
