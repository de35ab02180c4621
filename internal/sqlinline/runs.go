package sqlinline

const QEnsureInferenceRuns = `--sql 7d1e52a4-96b0-4c0f-8f3b-2a6c1e9d4b57
create table if not exists inference_runs (
  id          uuid primary key,
  use_case    text        not null,
  prompt      text        not null,
  result_text text        not null default '',
  fallback    boolean     not null default false,
  images      jsonb       not null default '[]'::jsonb,
  error       text,
  created_at  timestamptz not null default now()
);
create index if not exists inference_runs_created_at_idx on inference_runs (created_at desc);`

const QInsertInferenceRun = `--sql 3f8a0c61-2b7d-4e59-a1c4-5e9b7d2f0a36
insert into inference_runs (id, use_case, prompt, result_text, fallback, images, error, created_at)
values ($1::uuid, $2::text, $3::text, $4::text, $5::boolean, $6::jsonb, nullif($7::text, ''), $8::timestamptz)
on conflict (id) do nothing`

const QListRecentInferenceRuns = `--sql c4b29e07-58f1-4d3a-b6e2-90a7f1c3d845
select id::text, use_case, prompt, result_text, fallback, images, coalesce(error, ''), created_at
from inference_runs
order by created_at desc
limit $1::int`
